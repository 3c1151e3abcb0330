package postgresql_test

import (
	"testing"
	"time"

	"github.com/simgate/simgate/pkg/models"
	"github.com/simgate/simgate/pkg/persistence"
	"github.com/simgate/simgate/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRepository_CreateAndGet(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	run := models.NewRun("minimisation", map[string]any{
		"steps":       float64(500),
		"coordinates": "system.gro",
	})

	err := p.RunRepository().Create(ctx, run)
	require.NoError(t, err)

	retrieved, err := p.RunRepository().GetByID(ctx, run.ID)
	require.NoError(t, err)
	require.NotNil(t, retrieved)

	assert.Equal(t, run.ID, retrieved.ID)
	assert.Equal(t, "minimisation", retrieved.NodeType)
	assert.Equal(t, models.RunStatusPending, retrieved.Status)
	assert.Equal(t, float64(500), retrieved.Inputs["steps"])
	assert.Equal(t, "system.gro", retrieved.Inputs["coordinates"])
	assert.Nil(t, retrieved.Outputs)
	assert.Nil(t, retrieved.Records)
	assert.Empty(t, retrieved.WorkerID)
	assert.Nil(t, retrieved.StartedAt)
	assert.Nil(t, retrieved.FinishedAt)
}

func TestRunRepository_CreateDuplicate(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	run := models.NewRun("minimisation", nil)
	require.NoError(t, p.RunRepository().Create(ctx, run))

	err := p.RunRepository().Create(ctx, run)
	require.Error(t, err)
	assert.True(t, persistence.IsRunAlreadyExists(err))
}

func TestRunRepository_GetByID_NotFound(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	_, err := p.RunRepository().GetByID(ctx, "00000000-0000-0000-0000-000000000000")
	require.Error(t, err)
	assert.True(t, persistence.IsRunNotFound(err))
}

func TestRunRepository_UpdateLifecycle(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	run := models.NewRun("production", map[string]any{"steps": float64(1000)})
	require.NoError(t, p.RunRepository().Create(ctx, run))

	run.Start("worker-12345678")
	require.NoError(t, p.RunRepository().Update(ctx, run))

	run.Complete(
		map[string]any{"final_step": float64(1000)},
		map[string][]string{
			"STEP":      {"0", "500", "1000"},
			"POTENTIAL": {"-1.2e+05", "-1.3e+05", "-1.4e+05"},
		},
	)
	require.NoError(t, p.RunRepository().Update(ctx, run))

	retrieved, err := p.RunRepository().GetByID(ctx, run.ID)
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusCompleted, retrieved.Status)
	assert.Equal(t, "worker-12345678", retrieved.WorkerID)
	assert.Equal(t, float64(1000), retrieved.Outputs["final_step"])
	assert.Equal(t, []string{"0", "500", "1000"}, retrieved.Records["STEP"])
	require.NotNil(t, retrieved.StartedAt)
	require.NotNil(t, retrieved.FinishedAt)
	assert.True(t, retrieved.FinishedAt.After(*retrieved.StartedAt) || retrieved.FinishedAt.Equal(*retrieved.StartedAt))
}

func TestRunRepository_Update_NotFound(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	run := models.NewRun("production", nil)

	err := p.RunRepository().Update(ctx, run)
	require.Error(t, err)
	assert.True(t, persistence.IsRunNotFound(err))
}

func TestRunRepository_ListRuns(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	seedRun := func(nodeType string, status models.RunStatus, createdAt time.Time) *models.Run {
		run := testutil.CreateTestRun(
			testutil.WithNodeType(nodeType),
			testutil.WithStatus(status),
			testutil.WithCreatedAt(createdAt),
		)
		require.NoError(t, p.RunRepository().Create(ctx, run))

		return run
	}

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	oldest := seedRun("minimisation", models.RunStatusCompleted, base)
	middle := seedRun("equilibration", models.RunStatusFailed, base.Add(time.Hour))
	newest := seedRun("production", models.RunStatusPending, base.Add(2*time.Hour))

	t.Run("all runs, newest first", func(t *testing.T) {
		result, err := p.RunRepository().ListRuns(ctx, persistence.ListRunsOptions{})
		require.NoError(t, err)

		require.Len(t, result.Runs, 3)
		assert.Equal(t, int64(3), result.TotalCount)
		assert.False(t, result.HasNextPage)
		assert.Equal(t, newest.ID, result.Runs[0].ID)
		assert.Equal(t, oldest.ID, result.Runs[2].ID)
	})

	t.Run("status filter", func(t *testing.T) {
		failed := models.RunStatusFailed

		result, err := p.RunRepository().ListRuns(ctx, persistence.ListRunsOptions{Status: &failed})
		require.NoError(t, err)

		require.Len(t, result.Runs, 1)
		assert.Equal(t, middle.ID, result.Runs[0].ID)
	})

	t.Run("status and node type filter", func(t *testing.T) {
		pending := models.RunStatusPending

		result, err := p.RunRepository().ListRuns(ctx, persistence.ListRunsOptions{
			Status:   &pending,
			NodeType: "production",
		})
		require.NoError(t, err)

		require.Len(t, result.Runs, 1)
		assert.Equal(t, newest.ID, result.Runs[0].ID)
	})

	t.Run("pagination", func(t *testing.T) {
		result, err := p.RunRepository().ListRuns(ctx, persistence.ListRunsOptions{Limit: 2})
		require.NoError(t, err)

		assert.Len(t, result.Runs, 2)
		assert.Equal(t, int64(3), result.TotalCount)
		assert.True(t, result.HasNextPage)

		result, err = p.RunRepository().ListRuns(ctx, persistence.ListRunsOptions{Limit: 2, Offset: 2})
		require.NoError(t, err)

		assert.Len(t, result.Runs, 1)
		assert.False(t, result.HasNextPage)
	})

	t.Run("disallowed sort field", func(t *testing.T) {
		_, err := p.RunRepository().ListRuns(ctx, persistence.ListRunsOptions{SortBy: "error"})
		require.Error(t, err)
		assert.ErrorIs(t, err, persistence.ErrInvalidSortField)
	})
}

func TestRunRepository_Delete(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	run := models.NewRun("freeenergy", nil)
	require.NoError(t, p.RunRepository().Create(ctx, run))

	require.NoError(t, p.RunRepository().Delete(ctx, run.ID))

	_, err := p.RunRepository().GetByID(ctx, run.ID)
	assert.True(t, persistence.IsRunNotFound(err))

	// Deleting again is not an error.
	assert.NoError(t, p.RunRepository().Delete(ctx, run.ID))
}
