package validate

import (
	"fmt"
	"strings"

	"github.com/jmylchreest/eroom-api/internal/models"
)

// Request checks the shape of an inbound creation request (§4.E). It runs
// as Pipeline phase 1: a failure here surfaces as a FAILED result document,
// not an HTTP-level error, since by the time the Pipeline runs the job is
// already accepted and queued.
func Request(r *models.CreationRequest) error {
	if r == nil {
		return fmt.Errorf("request is nil")
	}
	if err := RequestPresence(r); err != nil {
		return err
	}
	if !strings.HasPrefix(r.RoomPrefab, "https://") {
		return fmt.Errorf("roomPrefab must start with https://")
	}
	if r.Difficulty != "" {
		switch r.Difficulty {
		case models.DifficultyEasy, models.DifficultyNormal, models.DifficultyHard:
		default:
			return fmt.Errorf("difficulty = %q, want easy|normal|hard", r.Difficulty)
		}
	}
	return nil
}

// RequestPresence checks only that the required fields of a creation
// request are present, without judging their format. The HTTP Surface runs
// this synchronously before enqueueing (§6: malformed submissions are
// rejected 400 rather than accepted and failed later), since a request
// missing its identifying fields was never admissible work in the first
// place. Format/enum validity (URL scheme, difficulty enum) is left to the
// full Request check the Pipeline runs once the job is already in flight.
func RequestPresence(r *models.CreationRequest) error {
	if r == nil {
		return fmt.Errorf("request is nil")
	}
	if strings.TrimSpace(r.UserID) == "" {
		return fmt.Errorf("uuid is required")
	}
	if strings.TrimSpace(r.Theme) == "" {
		return fmt.Errorf("theme is required")
	}
	if len(r.Keywords) == 0 {
		return fmt.Errorf("keywords is required")
	}
	for _, k := range r.Keywords {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("keywords contains a blank entry")
		}
	}
	if strings.TrimSpace(r.RoomPrefab) == "" {
		return fmt.Errorf("roomPrefab is required")
	}
	return nil
}
