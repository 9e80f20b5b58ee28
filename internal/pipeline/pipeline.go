// Package pipeline implements the per-job Pipeline (§4.F): the sequential
// validate → LLM scenario → fan out mesh jobs → LLM scripts → assemble
// sequence that turns one CreationRequest into a terminal ResultDocument.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmylchreest/eroom-api/internal/llmgateway"
	"github.com/jmylchreest/eroom-api/internal/meshgateway"
	"github.com/jmylchreest/eroom-api/internal/models"
	"github.com/jmylchreest/eroom-api/internal/validate"
)

// Prompts holds the two static system prompts loaded from configuration.
type Prompts struct {
	Scenario       string
	UnifiedScripts string
}

// ModelParams holds the model name and per-role generation parameters
// loaded from configuration.
type ModelParams struct {
	Name                 string
	MaxTokens            int
	ScenarioTemperature  float64
	ScriptTemperature    float64
}

// Pipeline runs the five phases of §4.F for one job. It holds no per-job
// state; everything it needs travels through Run's arguments and return value.
type Pipeline struct {
	llm     *llmgateway.Client
	mesh    *meshgateway.Client
	prompts Prompts
	model   ModelParams
	logger  *slog.Logger
}

// New constructs a Pipeline.
func New(llm *llmgateway.Client, mesh *meshgateway.Client, prompts Prompts, model ModelParams, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		llm:     llm,
		mesh:    mesh,
		prompts: prompts,
		model:   model,
		logger:  logger.With("component", "pipeline"),
	}
}

// Run executes all five phases for jobID and req, and always returns a
// terminal ResultDocument: success with the assembled artifacts, or failure
// with the error message, per §4.F's exception handling.
func (p *Pipeline) Run(ctx context.Context, jobID string, req models.CreationRequest) *models.ResultDocument {
	logger := p.logger.With("job_id", jobID)
	resultUUID := uuid.NewString()

	doc, err := p.run(ctx, jobID, req, logger)
	now := time.Now().Unix()
	if err != nil {
		logger.Error("job failed", "error", err)
		return &models.ResultDocument{
			RUID:      jobID,
			UUID:      resultUUID,
			Success:   false,
			Error:     err.Error(),
			Timestamp: now,
		}
	}

	doc.RUID = jobID
	doc.UUID = resultUUID
	doc.Success = true
	doc.Timestamp = now
	return doc
}

func (p *Pipeline) run(ctx context.Context, jobID string, req models.CreationRequest, logger *slog.Logger) (*models.ResultDocument, error) {
	if err := validate.Request(&req); err != nil {
		return nil, fmt.Errorf("request validation: %w", err)
	}

	scenario, err := p.generateScenario(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := validate.Scenario(scenario, logger); err != nil {
		return nil, fmt.Errorf("scenario validation: %w", err)
	}

	handles := p.fanOutMeshJobs(ctx, scenario, req.IsFreeModeling)

	scripts, err := p.generateScripts(ctx, scenario)
	if err != nil {
		return nil, err
	}

	return &models.ResultDocument{
		Scenario: scenario,
		Scripts:  scripts,
		Models:   handles,
	}, nil
}

// generateScenario composes the scenario prompt inputs from the request and
// invokes the LLM Gateway.
func (p *Pipeline) generateScenario(ctx context.Context, req models.CreationRequest) (*models.Scenario, error) {
	scenario, err := p.llm.GenerateScenario(ctx, p.prompts.Scenario, req, llmgateway.CallParams{
		Model:       p.model.Name,
		MaxTokens:   p.model.MaxTokens,
		Temperature: p.model.ScenarioTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("scenario generation: %w", err)
	}
	return scenario, nil
}

// fanOutMeshJobs submits one mesh-generation job per interactive_object, in
// declaration order, using that object's ordinal among submitted mesh jobs
// as the key-rotation index. Sentinel tracking ids from Mesh Gateway
// failures are kept verbatim; fan-out never fails the job.
func (p *Pipeline) fanOutMeshJobs(ctx context.Context, scenario *models.Scenario, isFreeModeling bool) []models.ModelHandle {
	var handles []models.ModelHandle
	keyIndex := 0
	for _, obj := range scenario.ObjectInstructions {
		if obj.Type != models.ObjectTypeInteractiveObject {
			continue
		}

		prompt := obj.VisualDescription
		if isFreeModeling {
			prompt = obj.SimpleVisualDescription
		}

		trackingID := p.mesh.SubmitModel(ctx, prompt, obj.Name, keyIndex)
		handles = append(handles, models.ModelHandle{ObjectName: obj.Name, TrackingID: trackingID})
		keyIndex++
	}
	return handles
}

// generateScripts composes the scripts prompt inputs from the validated
// scenario and invokes the LLM Gateway.
func (p *Pipeline) generateScripts(ctx context.Context, scenario *models.Scenario) (models.ScriptBundle, error) {
	requestData, err := scenarioForScriptPrompt(scenario)
	if err != nil {
		return nil, fmt.Errorf("compose script prompt input: %w", err)
	}

	bundle, err := p.llm.GenerateScripts(ctx, p.prompts.UnifiedScripts, requestData, llmgateway.CallParams{
		Model:       p.model.Name,
		MaxTokens:   p.model.MaxTokens,
		Temperature: p.model.ScriptTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("script generation: %w", err)
	}
	return bundle, nil
}

// scenarioForScriptPrompt re-encodes the validated scenario so its exact
// JSON shape (not a Go-side reinterpretation) is what reaches the LLM.
func scenarioForScriptPrompt(scenario *models.Scenario) (json.RawMessage, error) {
	b, err := json.Marshal(scenario)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}
