// Package testutil provides test data builders shared across packages.
package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/simgate/simgate/pkg/models"
)

// CreateTestRun creates a pending minimisation run with default values that
// can be overridden.
func CreateTestRun(overrides ...func(*models.Run)) *models.Run {
	run := &models.Run{
		ID:       uuid.New().String(),
		NodeType: "minimisation",
		Status:   models.RunStatusPending,
		Inputs: map[string]any{
			"steps":       float64(500),
			"coordinates": []any{"input/system.gro"},
			"topology":    "input/system.top",
		},
		CreatedAt: time.Now().UTC(),
	}

	for _, override := range overrides {
		override(run)
	}

	return run
}

// WithID sets the run ID.
func WithID(id string) func(*models.Run) {
	return func(r *models.Run) {
		r.ID = id
	}
}

// WithNodeType sets the node type.
func WithNodeType(nodeType string) func(*models.Run) {
	return func(r *models.Run) {
		r.NodeType = nodeType
	}
}

// WithInputs sets the input document.
func WithInputs(inputs map[string]any) func(*models.Run) {
	return func(r *models.Run) {
		r.Inputs = inputs
	}
}

// WithStatus sets the run status.
func WithStatus(status models.RunStatus) func(*models.Run) {
	return func(r *models.Run) {
		r.Status = status
	}
}

// WithCreatedAt sets the creation timestamp.
func WithCreatedAt(createdAt time.Time) func(*models.Run) {
	return func(r *models.Run) {
		r.CreatedAt = createdAt
	}
}

// AsRunning transitions the run to running on the given worker.
func AsRunning(workerID string) func(*models.Run) {
	return func(r *models.Run) {
		r.Start(workerID)
	}
}

// AsCompleted transitions the run through running to completed with the
// given outputs and record series.
func AsCompleted(outputs map[string]any, records map[string][]string) func(*models.Run) {
	return func(r *models.Run) {
		r.Start("worker-test")
		r.Complete(outputs, records)
	}
}

// AsFailed transitions the run through running to failed with the given
// reason.
func AsFailed(reason string) func(*models.Run) {
	return func(r *models.Run) {
		r.Start("worker-test")
		r.Fail(reason)
	}
}
