// Package persistence provides the data storage abstraction layer for runs.
package persistence

import (
	"context"

	"github.com/simgate/simgate/pkg/models"
)

// ListRunsOptions filters and paginates run listings.
type ListRunsOptions struct {
	Status    *models.RunStatus // nil means all statuses
	NodeType  string            // "" means all node types
	Limit     int
	Offset    int
	SortBy    string // created_at, finished_at or node_type
	SortOrder string // asc or desc
}

// RunListResult is one page of runs plus paging metadata.
type RunListResult struct {
	Runs        []*models.Run `json:"runs"`
	TotalCount  int64         `json:"total_count"`
	HasNextPage bool          `json:"has_next_page"`
}

// RunRepository stores run records across their lifecycle.
type RunRepository interface {
	// Create stores a new run. It fails with ErrRunAlreadyExists if the ID
	// is taken.
	Create(ctx context.Context, run *models.Run) error

	// Update rewrites an existing run, typically after a status
	// transition. It fails with ErrRunNotFound if the run does not exist.
	Update(ctx context.Context, run *models.Run) error

	// GetByID fetches a run, failing with ErrRunNotFound if it does not
	// exist.
	GetByID(ctx context.Context, id string) (*models.Run, error)

	// ListRuns returns paginated and filtered runs.
	ListRuns(ctx context.Context, opts ListRunsOptions) (*RunListResult, error)

	// Delete removes a run record. Deleting a missing run is not an
	// error.
	Delete(ctx context.Context, id string) error
}

type Persistence interface {
	RunRepository() RunRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
