// Package services provides run submission and retrieval on top of the
// registry, the persistence layer and the event bus.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/simgate/simgate/pkg/eventbus"
	"github.com/simgate/simgate/pkg/events"
	"github.com/simgate/simgate/pkg/models"
	"github.com/simgate/simgate/pkg/persistence"
	"github.com/simgate/simgate/pkg/registry"
)

// SubmitRunRequest contains everything needed to queue one node execution.
type SubmitRunRequest struct {
	NodeType string
	Inputs   map[string]any
}

// Run handles run-related business operations.
type Run struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	events      eventbus.EventPublisher
	logger      *slog.Logger
}

// NewRun creates a new run service. The event publisher may be nil for
// callers that dispatch work themselves, such as the standalone CLI.
func NewRun(p persistence.Persistence, r *registry.Registry, publisher eventbus.EventPublisher, logger *slog.Logger) *Run {
	return &Run{
		persistence: p,
		registry:    r,
		events:      publisher,
		logger:      logger,
	}
}

// HealthCheck checks the health of the persistence layer.
func (s *Run) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := s.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// Submit validates a run request against the node's requirement schema,
// persists it as pending and announces it on the event bus. Validation here
// is the admission gate: a document that cannot possibly bind is rejected
// before it ever reaches a worker.
func (s *Run) Submit(ctx context.Context, req *SubmitRunRequest) (*models.Run, error) {
	if req == nil || req.NodeType == "" {
		return nil, NewValidationError("Submit", "NODE_TYPE_REQUIRED", "node type is required", ErrNodeTypeRequired)
	}

	factory, err := s.registry.Factory(req.NodeType)
	if err != nil {
		return nil, &ServiceError{
			Op:      "Submit",
			Code:    "UNKNOWN_NODE_TYPE",
			Message: fmt.Sprintf("node type '%s' is not registered", req.NodeType),
			Err:     ErrNodeTypeNotFound,
		}
	}

	// Building the node applies the protocol overlay, so out-of-range
	// parameters are caught here.
	node, err := factory.Create(ctx, req.Inputs)
	if err != nil {
		return nil, NewValidationError("Submit", "INVALID_PROTOCOL", err.Error(), ErrInvalidInputDocument)
	}

	err = registry.ValidateDocument(node.Controls().Schema(), req.Inputs)
	if err != nil {
		return nil, NewValidationError("Submit", "INVALID_INPUT_DOCUMENT", err.Error(), ErrInvalidInputDocument)
	}

	run := models.NewRun(req.NodeType, req.Inputs)

	err = s.persistence.RunRepository().Create(ctx, run)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	if s.events != nil {
		queued := events.RunQueued{
			BaseEvent: events.NewBaseEvent(events.RunQueuedEvent, run.ID),
			NodeType:  run.NodeType,
			Inputs:    run.Inputs,
		}

		err = s.events.Publish(ctx, run.ID, queued)
		if err != nil {
			// The run is persisted but no worker heard about it. Fail
			// the submission so the caller retries instead of waiting
			// on a run that will never start.
			return nil, fmt.Errorf("failed to publish run.queued for run %s: %w", run.ID, err)
		}
	}

	s.logger.InfoContext(ctx, "Run submitted", "run_id", run.ID, "node_type", run.NodeType)

	return run, nil
}

// FetchByID retrieves a run by its ID.
func (s *Run) FetchByID(ctx context.Context, id string) (*models.Run, error) {
	run, err := s.persistence.RunRepository().GetByID(ctx, id)
	if err != nil {
		if persistence.IsRunNotFound(err) {
			return nil, ErrRunNotFound
		}

		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return run, nil
}

// ListRunsRequest contains options for listing runs.
type ListRunsRequest struct {
	// Pagination
	Limit  int
	Offset int

	// Filtering
	Status   *models.RunStatus
	NodeType string

	// Sorting
	SortBy    string
	SortOrder string
}

// ListRunsResponse contains the result of listing runs.
type ListRunsResponse struct {
	Runs        []*models.Run `json:"runs"`
	TotalCount  int64         `json:"total_count"`
	HasNextPage bool          `json:"has_next_page"`
}

// ListRuns retrieves runs with filtering, sorting, and pagination.
func (s *Run) ListRuns(ctx context.Context, req ListRunsRequest) (*ListRunsResponse, error) {
	if err := s.validateListRunsRequest(&req); err != nil {
		return nil, err
	}

	opts := persistence.ListRunsOptions{
		Limit:     req.Limit,
		Offset:    req.Offset,
		Status:    req.Status,
		NodeType:  req.NodeType,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	}

	result, err := s.persistence.RunRepository().ListRuns(ctx, opts)
	if err != nil {
		if errors.Is(err, persistence.ErrInvalidSortField) {
			return nil, ErrInvalidSortField
		}

		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	return &ListRunsResponse{
		Runs:        result.Runs,
		TotalCount:  result.TotalCount,
		HasNextPage: result.HasNextPage,
	}, nil
}

// validateListRunsRequest validates and sets defaults for the request.
func (s *Run) validateListRunsRequest(req *ListRunsRequest) error {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	if req.Limit > 100 {
		req.Limit = 100
	}

	if req.Offset < 0 {
		req.Offset = 0
	}

	if req.SortBy == "" {
		req.SortBy = "created_at"
	}

	if req.SortOrder == "" {
		req.SortOrder = "desc"
	}

	allowedSorts := []string{"created_at", "finished_at", "node_type"}

	if !slices.Contains(allowedSorts, req.SortBy) {
		return NewValidationError(
			"validateListRunsRequest",
			"INVALID_SORT_FIELD",
			fmt.Sprintf("invalid sort field '%s', allowed: %s", req.SortBy, strings.Join(allowedSorts, ", ")),
			ErrInvalidSortField,
		)
	}

	if req.SortOrder != "asc" && req.SortOrder != "desc" {
		return NewValidationError(
			"validateListRunsRequest",
			"INVALID_SORT_ORDER",
			fmt.Sprintf("invalid sort order '%s', allowed: asc, desc", req.SortOrder),
			ErrInvalidSortOrder,
		)
	}

	if req.Status != nil && !models.ValidStatus(*req.Status) {
		return NewValidationError(
			"validateListRunsRequest",
			"INVALID_STATUS",
			fmt.Sprintf("invalid status '%s'", *req.Status),
			ErrInvalidStatus,
		)
	}

	return nil
}
