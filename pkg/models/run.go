// Package models defines the core domain models for simulation node runs.
package models

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus represents the lifecycle state of a run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"   // Accepted, waiting for a worker
	RunStatusRunning   RunStatus = "running"   // Executing on a worker
	RunStatusCompleted RunStatus = "completed" // Finished, outputs validated
	RunStatusFailed    RunStatus = "failed"    // Finished with an error
)

// Run is the persisted record of one node execution: the submitted inputs,
// the lifecycle status, and, once the node has executed, the validated
// outputs and the collected record series.
type Run struct {
	ID         string              `json:"id"`
	NodeType   string              `json:"node_type"             validate:"required"`
	Status     RunStatus           `json:"status"                validate:"required"`
	Inputs     map[string]any      `json:"inputs"`
	Outputs    map[string]any      `json:"outputs,omitempty"`
	Records    map[string][]string `json:"records,omitempty"`
	WorkerID   string              `json:"worker_id,omitempty"`
	Error      string              `json:"error,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	StartedAt  *time.Time          `json:"started_at,omitempty"`
	FinishedAt *time.Time          `json:"finished_at,omitempty"`
}

// NewRun creates a pending run for nodeType with the given input document.
func NewRun(nodeType string, inputs map[string]any) *Run {
	if inputs == nil {
		inputs = make(map[string]any)
	}

	return &Run{
		ID:        uuid.New().String(),
		NodeType:  nodeType,
		Status:    RunStatusPending,
		Inputs:    inputs,
		CreatedAt: time.Now().UTC(),
	}
}

// Start transitions the run to running and records the worker that claimed
// it.
func (r *Run) Start(workerID string) {
	now := time.Now().UTC()
	r.Status = RunStatusRunning
	r.WorkerID = workerID
	r.StartedAt = &now
}

// Complete transitions the run to completed with its validated outputs and
// record series.
func (r *Run) Complete(outputs map[string]any, records map[string][]string) {
	now := time.Now().UTC()
	r.Status = RunStatusCompleted
	r.Outputs = outputs
	r.Records = records
	r.FinishedAt = &now
}

// Fail transitions the run to failed with the failure detail.
func (r *Run) Fail(reason string) {
	now := time.Now().UTC()
	r.Status = RunStatusFailed
	r.Error = reason
	r.FinishedAt = &now
}

// Finished reports whether the run has reached a terminal status.
func (r *Run) Finished() bool {
	return r.Status == RunStatusCompleted || r.Status == RunStatusFailed
}

// ValidStatus reports whether s is one of the known run statuses.
func ValidStatus(s RunStatus) bool {
	switch s {
	case RunStatusPending, RunStatusRunning, RunStatusCompleted, RunStatusFailed:
		return true
	}

	return false
}
