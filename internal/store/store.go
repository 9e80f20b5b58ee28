// Package store implements the in-memory job result store: the sole
// component holding cross-job shared mutable state (§4.A).
package store

import (
	"errors"
	"sync"

	"github.com/jmylchreest/eroom-api/internal/models"
)

// ErrJobNotFound is returned when an operation targets an unknown job id.
var ErrJobNotFound = errors.New("job not found")

// ErrAlreadyRegistered is returned by Register when the id is already present.
var ErrAlreadyRegistered = errors.New("job already registered")

// ErrIllegalTransition is returned when Update or StoreFinal would violate
// the monotonic QUEUED -> PROCESSING -> (COMPLETED | FAILED) status ordering.
var ErrIllegalTransition = errors.New("illegal job status transition")

// JobState is a snapshot of one job's lifecycle state.
type JobState struct {
	Status models.JobStatus
	Result *models.ResultDocument
}

var order = map[models.JobStatus]int{
	models.JobStatusQueued:     0,
	models.JobStatusProcessing: 1,
	models.JobStatusCompleted:  2,
	models.JobStatusFailed:     2,
}

// Store maps JobId to JobState. All operations are safe for concurrent use;
// the store holds no I/O locks across operations and readers never observe
// torn state.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]JobState
}

// New creates an empty Store.
func New() *Store {
	return &Store{jobs: make(map[string]JobState)}
}

// Register inserts a new job with status QUEUED. Fails if id is already present.
func (s *Store) Register(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[id]; exists {
		return ErrAlreadyRegistered
	}
	s.jobs[id] = JobState{Status: models.JobStatusQueued}
	return nil
}

// Unregister removes a job's registration. Used to roll back a Register
// when enqueueing fails (§4.G submission rollback).
func (s *Store) Unregister(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
}

// Update performs a monotonic status transition (e.g. QUEUED -> PROCESSING).
// Rejects transitions that would move the job backwards or out of a terminal
// state.
func (s *Store) Update(id string, status models.JobStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, exists := s.jobs[id]
	if !exists {
		return ErrJobNotFound
	}
	if state.Status == models.JobStatusCompleted || state.Status == models.JobStatusFailed || order[status] < order[state.Status] {
		return ErrIllegalTransition
	}
	state.Status = status
	s.jobs[id] = state
	return nil
}

// StoreFinal sets a terminal status and attaches the result document.
// Atomic with respect to readers: Get never observes a terminal status
// without its result document, or vice versa.
func (s *Store) StoreFinal(id string, status models.JobStatus, result *models.ResultDocument) error {
	if status != models.JobStatusCompleted && status != models.JobStatusFailed {
		return ErrIllegalTransition
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, exists := s.jobs[id]
	if !exists {
		return ErrJobNotFound
	}
	if state.Status == models.JobStatusCompleted || state.Status == models.JobStatusFailed || order[status] < order[state.Status] {
		return ErrIllegalTransition
	}
	s.jobs[id] = JobState{Status: status, Result: result}
	return nil
}

// Get returns a snapshot of the job's state, or ok=false if absent.
func (s *Store) Get(id string) (JobState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, exists := s.jobs[id]
	return state, exists
}

// Delete removes the job's entry. Intended to be called exactly once, by
// the HTTP Surface, immediately after a terminal state has been served.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
}
