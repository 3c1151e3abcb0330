package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/simgate/simgate/pkg/models"
	"github.com/simgate/simgate/pkg/persistence"
)

const uniqueViolation = "23505"

// RunRepository handles run-related database operations.
type RunRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRunRepository creates a new run repository.
func NewRunRepository(db *sql.DB, logger *slog.Logger) *RunRepository {
	return &RunRepository{db: db, logger: logger}
}

const runColumns = `
	id
  , node_type
  , status
  , inputs
  , outputs
  , records
  , worker_id
  , error
  , created_at
  , started_at
  , finished_at
`

// Create stores a new run.
func (r *RunRepository) Create(ctx context.Context, run *models.Run) error {
	inputs, outputs, records, err := marshalRunDocuments(run)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO runs (` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = r.db.ExecContext(ctx, query,
		run.ID,
		run.NodeType,
		run.Status,
		inputs,
		outputs,
		records,
		nullString(run.WorkerID),
		nullString(run.Error),
		run.CreatedAt,
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return persistence.NewRunError("Create", run.ID, persistence.ErrRunAlreadyExists)
		}

		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}

	return nil
}

// Update rewrites an existing run after a status transition.
func (r *RunRepository) Update(ctx context.Context, run *models.Run) error {
	_, outputs, records, err := marshalRunDocuments(run)
	if err != nil {
		return err
	}

	query := `
		UPDATE runs
		SET status = $2
		  , outputs = $3
		  , records = $4
		  , worker_id = $5
		  , error = $6
		  , started_at = $7
		  , finished_at = $8
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		run.ID,
		run.Status,
		outputs,
		records,
		nullString(run.WorkerID),
		nullString(run.Error),
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update run %s: %w", run.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result for run %s: %w", run.ID, err)
	}

	if affected == 0 {
		return persistence.NewRunError("Update", run.ID, persistence.ErrRunNotFound)
	}

	return nil
}

// GetByID fetches a run by its ID.
func (r *RunRepository) GetByID(ctx context.Context, id string) (*models.Run, error) {
	query := `
		SELECT ` + runColumns + `
		FROM runs
		WHERE id = $1
	`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewRunError("GetByID", id, persistence.ErrRunNotFound)
		}

		return nil, fmt.Errorf("failed to scan run %s: %w", id, err)
	}

	return run, nil
}

// ListRuns returns paginated and filtered runs.
func (r *RunRepository) ListRuns(ctx context.Context, opts persistence.ListRunsOptions) (*persistence.RunListResult, error) {
	if opts.Limit <= 0 || opts.Limit > 100 {
		opts.Limit = 20
	}

	if opts.SortBy == "" {
		opts.SortBy = "created_at"
	}

	if opts.SortOrder != "asc" {
		opts.SortOrder = "desc"
	}

	// Sort fields map straight into the ORDER BY clause, so they are
	// checked against an allowlist, never interpolated from user input.
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

	var (
		conditions []string
		args       []any
	)

	if opts.Status != nil {
		args = append(args, string(*opts.Status))
		conditions = append(conditions, "status = $"+strconv.Itoa(len(args)))
	}

	if opts.NodeType != "" {
		args = append(args, opts.NodeType)
		conditions = append(conditions, "node_type = $"+strconv.Itoa(len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var totalCount int64

	countQuery := "SELECT COUNT(*) FROM runs " + where

	err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&totalCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count runs: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM runs
		%s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, runColumns, where, opts.SortBy, strings.ToUpper(opts.SortOrder), len(args)+1, len(args)+2)

	args = append(args, opts.Limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	runs := make([]*models.Run, 0, opts.Limit)

	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		runs = append(runs, run)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return &persistence.RunListResult{
		Runs:        runs,
		TotalCount:  totalCount,
		HasNextPage: int64(opts.Offset+len(runs)) < totalCount,
	}, nil
}

// Delete removes a run record. Deleting a missing run is not an error.
func (r *RunRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM runs WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}

	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*models.Run, error) {
	var (
		run      models.Run
		inputs   []byte
		outputs  []byte
		records  []byte
		workerID sql.NullString
		runError sql.NullString
		started  sql.NullTime
		finished sql.NullTime
	)

	err := row.Scan(
		&run.ID,
		&run.NodeType,
		&run.Status,
		&inputs,
		&outputs,
		&records,
		&workerID,
		&runError,
		&run.CreatedAt,
		&started,
		&finished,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(inputs, &run.Inputs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal inputs: %w", err)
	}

	if outputs != nil {
		if err := json.Unmarshal(outputs, &run.Outputs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal outputs: %w", err)
		}
	}

	if records != nil {
		if err := json.Unmarshal(records, &run.Records); err != nil {
			return nil, fmt.Errorf("failed to unmarshal records: %w", err)
		}
	}

	run.WorkerID = workerID.String
	run.Error = runError.String

	if started.Valid {
		t := started.Time.UTC()
		run.StartedAt = &t
	}

	if finished.Valid {
		t := finished.Time.UTC()
		run.FinishedAt = &t
	}

	run.CreatedAt = run.CreatedAt.UTC()

	return &run, nil
}

// marshalRunDocuments encodes the JSONB columns as text. lib/pq sends
// []byte parameters as bytea, which PostgreSQL refuses to cast to jsonb, so
// these go over the wire as strings. Outputs and records stay NULL until the
// run finishes.
func marshalRunDocuments(run *models.Run) (inputs string, outputs, records sql.NullString, err error) {
	marshal := func(v any, column string) (string, error) {
		data, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to marshal %s for run %s: %w", column, run.ID, err)
		}

		return string(data), nil
	}

	inputs, err = marshal(run.Inputs, "inputs")
	if err != nil {
		return "", sql.NullString{}, sql.NullString{}, err
	}

	if run.Outputs != nil {
		outputs.String, err = marshal(run.Outputs, "outputs")
		if err != nil {
			return "", sql.NullString{}, sql.NullString{}, err
		}

		outputs.Valid = true
	}

	if run.Records != nil {
		records.String, err = marshal(run.Records, "records")
		if err != nil {
			return "", sql.NullString{}, sql.NullString{}, err
		}

		records.Valid = true
	}

	return inputs, outputs, records, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
