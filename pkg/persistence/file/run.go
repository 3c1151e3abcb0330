package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/simgate/simgate/pkg/models"
	"github.com/simgate/simgate/pkg/persistence"
)

// RunRepository stores each run as runs/<id>.json under the root directory.
type RunRepository struct {
	root string
}

// NewRunRepository creates a new run repository.
func NewRunRepository(root string) *RunRepository {
	return &RunRepository{root: root}
}

func (rr *RunRepository) runPath(id string) string {
	return filepath.Clean(path.Join(rr.root, "runs", id+".json"))
}

// Create stores a new run, refusing to overwrite an existing one.
func (rr *RunRepository) Create(_ context.Context, run *models.Run) error {
	if _, err := os.Stat(rr.runPath(run.ID)); err == nil {
		return persistence.NewRunError("Create", run.ID, persistence.ErrRunAlreadyExists)
	}

	return rr.write(run)
}

// Update rewrites an existing run after a status transition.
func (rr *RunRepository) Update(_ context.Context, run *models.Run) error {
	if _, err := os.Stat(rr.runPath(run.ID)); os.IsNotExist(err) {
		return persistence.NewRunError("Update", run.ID, persistence.ErrRunNotFound)
	}

	return rr.write(run)
}

func (rr *RunRepository) write(run *models.Run) error {
	err := os.MkdirAll(path.Join(rr.root, "runs"), 0750)
	if err != nil {
		return fmt.Errorf("failed to create runs directory: %w", err)
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run %s: %w", run.ID, err)
	}

	return os.WriteFile(rr.runPath(run.ID), data, 0600)
}

// GetByID retrieves a run by its ID from the file system.
func (rr *RunRepository) GetByID(_ context.Context, id string) (*models.Run, error) {
	body, err := os.ReadFile(rr.runPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewRunError("GetByID", id, persistence.ErrRunNotFound)
		}

		return nil, fmt.Errorf("failed to fetch run %s: %w", id, err)
	}

	var run models.Run

	err = json.Unmarshal(body, &run)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal run %s: %w", id, err)
	}

	return &run, nil
}

// ListRuns returns paginated and filtered runs with in-memory operations.
func (rr *RunRepository) ListRuns(ctx context.Context, opts persistence.ListRunsOptions) (*persistence.RunListResult, error) {
	// Set defaults
	if opts.Limit <= 0 || opts.Limit > 100 {
		opts.Limit = 20
	}

	if opts.SortBy == "" {
		opts.SortBy = "created_at"
	}

	if opts.SortOrder == "" {
		opts.SortOrder = "desc"
	}

	// Validate sort parameters against allowlist (security)
	allowedSorts := map[string]bool{
		"created_at":  true,
		"finished_at": true,
		"node_type":   true,
	}
	if !allowedSorts[opts.SortBy] {
		return nil, &persistence.RunError{
			Op:      "ListRuns",
			Err:     persistence.ErrInvalidSortField,
			Message: fmt.Sprintf("sort field '%s' is not allowed", opts.SortBy),
		}
	}

	root := os.DirFS(path.Join(rr.root, "runs"))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list run files: %w", err)
	}

	if len(jsonFiles) == 0 {
		return &persistence.RunListResult{
			Runs:        make([]*models.Run, 0),
			TotalCount:  0,
			HasNextPage: false,
		}, nil
	}

	// Load everything, then filter in memory. Run volumes here are batch
	// sized, not request sized.
	filtered := make([]*models.Run, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		runID := file[:len(file)-5] // Remove .json extension

		run, err := rr.GetByID(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
		}

		if opts.Status != nil && run.Status != *opts.Status {
			continue
		}

		if opts.NodeType != "" && run.NodeType != opts.NodeType {
			continue
		}

		filtered = append(filtered, run)
	}

	rr.sortRuns(filtered, opts.SortBy, opts.SortOrder)

	totalCount := int64(len(filtered))
	startIdx := opts.Offset
	endIdx := opts.Offset + opts.Limit

	if startIdx >= len(filtered) {
		return &persistence.RunListResult{
			Runs:        make([]*models.Run, 0),
			TotalCount:  totalCount,
			HasNextPage: false,
		}, nil
	}

	if endIdx > len(filtered) {
		endIdx = len(filtered)
	}

	return &persistence.RunListResult{
		Runs:        filtered[startIdx:endIdx],
		TotalCount:  totalCount,
		HasNextPage: endIdx < len(filtered),
	}, nil
}

// sortRuns sorts runs in-place based on the specified field and order.
func (rr *RunRepository) sortRuns(runs []*models.Run, sortBy, sortOrder string) {
	sort.Slice(runs, func(i, j int) bool {
		var less bool

		switch sortBy {
		case "finished_at":
			// Unfinished runs sort last in ascending order.
			switch {
			case runs[i].FinishedAt == nil:
				less = false
			case runs[j].FinishedAt == nil:
				less = true
			default:
				less = runs[i].FinishedAt.Before(*runs[j].FinishedAt)
			}
		case "node_type":
			less = runs[i].NodeType < runs[j].NodeType
		default:
			less = runs[i].CreatedAt.Before(runs[j].CreatedAt)
		}

		if sortOrder == "desc" {
			return !less
		}

		return less
	})
}

// Delete removes a run by its ID. Deleting a missing run is not an error.
func (rr *RunRepository) Delete(_ context.Context, id string) error {
	err := os.Remove(rr.runPath(id))
	if err != nil && os.IsNotExist(err) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}

	return nil
}
