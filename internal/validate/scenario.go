// Package validate implements the Scenario Validator (§4.D) and the Request
// Validator (§4.E): pure functions over already-parsed data that return an
// error on the first violation found.
package validate

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/jmylchreest/eroom-api/internal/models"
)

var keywordCountRange = map[models.Difficulty][2]int{
	models.DifficultyEasy:   {3, 5},
	models.DifficultyNormal: {6, 7},
	models.DifficultyHard:   {8, 9},
}

// Scenario checks the structural and semantic invariants of an LLM-authored
// Scenario. It returns the first violation found; logger receives non-fatal
// diversity and dual-description warnings.
func Scenario(s *models.Scenario, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	if s == nil {
		return fmt.Errorf("scenario is nil")
	}

	if err := validateScenarioData(s.ScenarioData); err != nil {
		return err
	}

	if len(s.ObjectInstructions) == 0 {
		return fmt.Errorf("object_instructions is empty")
	}
	if s.ObjectInstructions[0].Name != "GameManager" {
		return fmt.Errorf("object_instructions[0].name = %q, want GameManager", s.ObjectInstructions[0].Name)
	}

	if err := requireExitDoor(s.ObjectInstructions); err != nil {
		return err
	}

	interactiveObjectCount := 0
	for _, obj := range s.ObjectInstructions {
		if obj.Type == models.ObjectTypeGameManager {
			continue
		}
		if err := validateNonManagerObject(obj, s.ScenarioData.IsFreeModeling, logger); err != nil {
			return fmt.Errorf("object %q: %w", obj.Name, err)
		}
		if obj.Type == models.ObjectTypeInteractiveObject {
			interactiveObjectCount++
		}
	}

	kc := s.ScenarioData.KeywordCount
	if kc.User+kc.Expanded != kc.Total {
		return fmt.Errorf("keyword_count: user(%d) + expanded(%d) != total(%d)", kc.User, kc.Expanded, kc.Total)
	}

	bounds, ok := keywordCountRange[s.ScenarioData.Difficulty]
	if !ok {
		return fmt.Errorf("unknown difficulty %q", s.ScenarioData.Difficulty)
	}
	if kc.Total < bounds[0] || kc.Total > bounds[1] {
		return fmt.Errorf("keyword_count.total = %d, want [%d,%d] for difficulty %q", kc.Total, bounds[0], bounds[1], s.ScenarioData.Difficulty)
	}

	if interactiveObjectCount != kc.Total {
		return fmt.Errorf("interactive_object count = %d, want keyword_count.total = %d", interactiveObjectCount, kc.Total)
	}

	warnDiversity(s.ObjectInstructions, logger)

	return nil
}

func validateScenarioData(d models.ScenarioData) error {
	if d.Theme == "" || d.Description == "" || d.EscapeCondition == "" || d.PuzzleFlow == "" {
		return fmt.Errorf("scenario_data missing one of theme, description, escape_condition, puzzle_flow")
	}
	switch d.ExitMechanism {
	case models.ExitMechanismKey, models.ExitMechanismCode, models.ExitMechanismLogicUnlock:
	default:
		return fmt.Errorf("scenario_data.exit_mechanism = %q, want key|code|logic_unlock", d.ExitMechanism)
	}
	return nil
}

func requireExitDoor(objs []models.ObjectInstruction) error {
	for _, obj := range objs {
		if obj.Name == "ExitDoor" && obj.InteractiveDescription != "" {
			return nil
		}
	}
	return fmt.Errorf("no ExitDoor object with interactive_description")
}

func validateNonManagerObject(obj models.ObjectInstruction, isFreeModeling bool, logger *slog.Logger) error {
	hasInteractive := obj.InteractiveDescription != ""
	hasMonologue := len(obj.MonologueMessages) > 0

	if !hasInteractive && !hasMonologue {
		return fmt.Errorf("must carry interactive_description or monologue_messages")
	}
	if hasInteractive && hasMonologue {
		logger.Warn("object carries both interactive_description and monologue_messages; honoring interactive_description only", "object", obj.Name)
	}

	switch obj.Type {
	case models.ObjectTypeExistingInteractiveObject:
		if obj.ID == "" {
			return fmt.Errorf("existing_interactive_object missing id")
		}
	case models.ObjectTypeInteractiveObject:
		if isFreeModeling {
			if obj.SimpleVisualDescription == "" {
				return fmt.Errorf("interactive_object missing simple_visual_description for free-modeling scenario")
			}
		} else if obj.VisualDescription == "" {
			return fmt.Errorf("interactive_object missing visual_description")
		}
	}

	return nil
}

var leadingModifierPattern = regexp.MustCompile(`(?i)^(old|new|small|large|big|tiny|rusty|broken|shiny|ancient|worn)[_\s-]*`)
var trailingDigitPattern = regexp.MustCompile(`\d+$`)

func baseName(name string) string {
	n := leadingModifierPattern.ReplaceAllString(name, "")
	n = trailingDigitPattern.ReplaceAllString(n, "")
	return strings.ToLower(strings.TrimSpace(n))
}

// warnDiversity emits a non-fatal warning when two interactive objects
// collapse to the same base name after stripping leading modifiers and
// trailing digits.
func warnDiversity(objs []models.ObjectInstruction, logger *slog.Logger) {
	seen := make(map[string]string)
	for _, obj := range objs {
		if obj.Type != models.ObjectTypeInteractiveObject {
			continue
		}
		base := baseName(obj.Name)
		if base == "" {
			continue
		}
		if prior, exists := seen[base]; exists {
			logger.Warn("low object-name diversity", "base", base, "first", prior, "second", obj.Name)
			continue
		}
		seen[base] = obj.Name
	}
}
