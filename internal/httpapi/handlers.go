// Package httpapi implements the HTTP surface (§4.H / §6): liveness,
// health, queue status, room creation, and result polling.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jmylchreest/eroom-api/internal/models"
	"github.com/jmylchreest/eroom-api/internal/queue"
	"github.com/jmylchreest/eroom-api/internal/store"
	"github.com/jmylchreest/eroom-api/internal/validate"
)

// Handlers holds the dependencies shared by every route.
type Handlers struct {
	queue  *queue.Queue
	store  *store.Store
	logger *slog.Logger
}

// New builds the Handlers for the HTTP surface.
func New(q *queue.Queue, st *store.Store, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{queue: q, store: st, logger: logger}
}

// Liveness handles GET /.
func (h *Handlers) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.LivenessResponse{
		Status:  "online",
		Message: "eroom-api is running",
	})
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status: "healthy",
		Queue:  h.queue.Counters(),
	})
}

// QueueStatus handles GET /queue/status.
func (h *Handlers) QueueStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.queue.Counters())
}

// RoomCreate handles POST /room/create. Malformed JSON and a request
// missing one of its required fields are rejected synchronously with 400
// (§6, §8 S2) since such a submission was never admissible work. Format
// and enum validity (URL scheme, difficulty enum) is left to the full
// Request Validator the Pipeline runs once the job is in flight; a
// failure there surfaces later as a FAILED result document (§8 S3) rather
// than an HTTP error, since by then the client already holds a ruid.
func (h *Handlers) RoomCreate(w http.ResponseWriter, r *http.Request) {
	var req models.CreationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.RequestPresence(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	jobID, err := h.queue.Submit(r.Context(), req)
	if err != nil {
		h.logger.Error("failed to enqueue room creation job", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to enqueue job")
		return
	}

	writeJSON(w, http.StatusAccepted, models.RoomAcceptedResponse{
		RUID:    jobID,
		Status:  "대기중",
		Message: "room creation queued",
	})
}

// RoomResult handles GET /room/result?ruid=<id>. While the job is
// non-terminal it returns a poll response; on the first terminal read it
// returns the full result document and deletes the store entry (§4.A
// deliver-once semantics).
func (h *Handlers) RoomResult(w http.ResponseWriter, r *http.Request) {
	ruid := r.URL.Query().Get("ruid")
	if ruid == "" {
		writeJSONError(w, http.StatusBadRequest, "missing ruid")
		return
	}

	state, ok := h.store.Get(ruid)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "unknown ruid")
		return
	}

	switch state.Status {
	case models.JobStatusCompleted, models.JobStatusFailed:
		h.store.Delete(ruid)
		writeJSON(w, http.StatusOK, state.Result)
	default:
		writeJSON(w, http.StatusOK, models.PollResponse{
			RUID:   ruid,
			Status: state.Status,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
