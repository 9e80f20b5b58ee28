// Package models defines the request, job, and result shapes exchanged
// between the HTTP surface, the pipeline, and the two external providers.
package models

// Difficulty is the requested escape-room difficulty tier.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyNormal Difficulty = "normal"
	DifficultyHard   Difficulty = "hard"
)

// ExitMechanism is the scenario's declared unlock paradigm.
type ExitMechanism string

const (
	ExitMechanismKey         ExitMechanism = "key"
	ExitMechanismCode        ExitMechanism = "code"
	ExitMechanismLogicUnlock ExitMechanism = "logic_unlock"
)

// ObjectType classifies an entry in Scenario.ObjectInstructions.
type ObjectType string

const (
	ObjectTypeGameManager               ObjectType = "game_manager"
	ObjectTypeExistingInteractiveObject ObjectType = "existing_interactive_object"
	ObjectTypeInteractiveObject         ObjectType = "interactive_object"
)

// JobStatus is the lifecycle state of a submitted room-creation job.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "QUEUED"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// ExistingObject is a (name, id) pair referencing an object already present
// in the caller's room prefab.
type ExistingObject struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// CreationRequest is the inbound payload for POST /room/create.
type CreationRequest struct {
	UserID          string           `json:"userId"`
	Theme           string           `json:"theme"`
	Keywords        []string         `json:"keywords"`
	Difficulty      Difficulty       `json:"difficulty,omitempty"`
	RoomPrefab      string           `json:"roomPrefab"`
	ExistingObjects []ExistingObject `json:"existingObjects,omitempty"`
	IsFreeModeling  bool             `json:"isFreeModeling,omitempty"`
}

// KeywordCount tracks how a scenario's keywords were expanded by the LLM.
type KeywordCount struct {
	User     int `json:"user"`
	Expanded int `json:"expanded"`
	Total    int `json:"total"`
}

// ScenarioData is the top-level descriptive section of a Scenario.
type ScenarioData struct {
	Theme           string        `json:"theme"`
	Description     string        `json:"description"`
	EscapeCondition string        `json:"escape_condition"`
	PuzzleFlow      string        `json:"puzzle_flow"`
	ExitMechanism   ExitMechanism `json:"exit_mechanism"`
	KeywordCount    KeywordCount  `json:"keyword_count"`
	Difficulty      Difficulty    `json:"difficulty"`
	IsFreeModeling  bool          `json:"is_free_modeling"`
}

// ObjectInstruction is one element of Scenario.ObjectInstructions.
type ObjectInstruction struct {
	Name                    string     `json:"name"`
	Type                    ObjectType `json:"type"`
	ID                      string     `json:"id,omitempty"`
	InteractiveDescription  string     `json:"interactive_description,omitempty"`
	MonologueMessages       []string   `json:"monologue_messages,omitempty"`
	VisualDescription       string     `json:"visual_description,omitempty"`
	SimpleVisualDescription string     `json:"simple_visual_description,omitempty"`
}

// Scenario is the validated LLM-authored escape-room document.
type Scenario struct {
	ScenarioData       ScenarioData        `json:"scenario_data"`
	ObjectInstructions []ObjectInstruction `json:"object_instructions"`
}

// ScriptBundle maps a resolved script name to its Base64-encoded source body.
type ScriptBundle map[string]string

// ModelHandle is a tracking handle for one mesh-generation job.
type ModelHandle struct {
	ObjectName string `json:"objectName"`
	TrackingID string `json:"trackingId"`
}

// ResultDocument is the terminal payload served from GET /room/result.
// Exactly one of (Scenario/Scripts/Models) or Error is populated, selected
// by Success.
type ResultDocument struct {
	RUID      string        `json:"ruid"`
	UUID      string        `json:"uuid"`
	Success   bool          `json:"success"`
	Scenario  *Scenario     `json:"scenario,omitempty"`
	Scripts   ScriptBundle  `json:"scripts,omitempty"`
	Models    []ModelHandle `json:"models,omitempty"`
	Error     string        `json:"error,omitempty"`
	Timestamp int64         `json:"timestamp"`
}

// PollResponse is served while a job has not reached a terminal state.
type PollResponse struct {
	RUID    string    `json:"ruid"`
	Status  JobStatus `json:"status"`
	Message string    `json:"message,omitempty"`
}

// QueueCounters reports Queue Manager metrics for /health and /queue/status.
type QueueCounters struct {
	Queued        int64 `json:"queued"`
	Active        int64 `json:"active"`
	Completed     int64 `json:"completed"`
	MaxConcurrent int   `json:"maxConcurrent"`
}

// RoomAcceptedResponse is returned by POST /room/create on successful
// enqueue (202).
type RoomAcceptedResponse struct {
	RUID    string `json:"ruid"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// LivenessResponse is returned by GET / (200).
type LivenessResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HealthResponse is returned by GET /health (200).
type HealthResponse struct {
	Status string        `json:"status"`
	Queue  QueueCounters `json:"queue"`
}

// ErrorResponse is the generic JSON error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
