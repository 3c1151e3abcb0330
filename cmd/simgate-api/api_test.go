package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/gofiber/fiber/v3"
	"github.com/simgate/simgate/pkg/channels/gochannel"
	"github.com/simgate/simgate/pkg/cmd"
	"github.com/simgate/simgate/pkg/eventbus"
	"github.com/simgate/simgate/pkg/models"
	"github.com/simgate/simgate/pkg/persistence/file"
	"github.com/simgate/simgate/pkg/services"
	"github.com/simgate/simgate/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEventBus(t *testing.T) eventbus.EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	return eventbus.NewWatermillEventBus(pub, sub)
}

func setupTestApp(t *testing.T, tempDir string) *fiber.App {
	t.Helper()

	persistence := file.NewPersistence(tempDir)

	app := NewAPI(
		slog.Default(),
		persistence,
		cmd.NewRegistry(slog.Default()),
		testEventBus(t),
	)

	return app.App()
}

func TestAPI_RootEndpoint(t *testing.T) {
	tempDir := t.TempDir()
	app := setupTestApp(t, tempDir)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "simgate API", string(body))
}

func TestAPI_HealthCheck(t *testing.T) {
	tempDir := t.TempDir()
	app := setupTestApp(t, tempDir)

	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "OK", string(body))
}

func TestAPI_GetNodeTypes(t *testing.T) {
	tempDir := t.TempDir()
	app := setupTestApp(t, tempDir)

	req := httptest.NewRequest(http.MethodGet, "/nodes", nil)
	req.Header.Set("Accept", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var summaries []services.NodeTypeSummary

	err = json.NewDecoder(resp.Body).Decode(&summaries)
	require.NoError(t, err)
	assert.Len(t, summaries, 4)

	types := make([]string, 0, len(summaries))
	for _, summary := range summaries {
		types = append(types, summary.Type)
	}

	assert.Contains(t, types, "minimisation")
	assert.Contains(t, types, "equilibration")
	assert.Contains(t, types, "production")
	assert.Contains(t, types, "freeenergy")
}

func TestAPI_GetNodeType(t *testing.T) {
	tempDir := t.TempDir()
	app := setupTestApp(t, tempDir)

	req := httptest.NewRequest(http.MethodGet, "/nodes/minimisation", nil)
	req.Header.Set("Accept", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var detail services.NodeTypeDetail

	err = json.NewDecoder(resp.Body).Decode(&detail)
	require.NoError(t, err)

	assert.Equal(t, "minimisation", detail.Type)
	assert.Equal(t, "Minimisation", detail.Name)
	assert.NotEmpty(t, detail.Schema)

	inputNames := make([]string, 0, len(detail.Inputs))
	for _, input := range detail.Inputs {
		inputNames = append(inputNames, input.Name)
	}

	assert.Contains(t, inputNames, "steps")
	assert.Contains(t, inputNames, "coordinates")
	assert.Contains(t, inputNames, "topology")
	assert.Contains(t, inputNames, "engine")
}

func TestAPI_GetNodeType_NotFound(t *testing.T) {
	tempDir := t.TempDir()
	app := setupTestApp(t, tempDir)

	req := httptest.NewRequest(http.MethodGet, "/nodes/teleportation", nil)
	req.Header.Set("Accept", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_CreateRun(t *testing.T) {
	tempDir := t.TempDir()
	app := setupTestApp(t, tempDir)

	body := `{
		"node_type": "minimisation",
		"inputs": {
			"steps": 500,
			"coordinates": ["input/system.gro"],
			"topology": "input/system.top"
		}
	}`

	req := httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var run models.Run

	err = json.NewDecoder(resp.Body).Decode(&run)
	require.NoError(t, err)

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "minimisation", run.NodeType)
	assert.Equal(t, models.RunStatusPending, run.Status)
	assert.Equal(t, "input/system.top", run.Inputs["topology"])

	// The run must be durable, not just echoed back.
	persistence := file.NewPersistence(tempDir)
	stored, err := persistence.RunRepository().GetByID(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusPending, stored.Status)
}

func TestAPI_CreateRun_UnknownNodeType(t *testing.T) {
	tempDir := t.TempDir()
	app := setupTestApp(t, tempDir)

	body := `{"node_type": "teleportation", "inputs": {}}`

	req := httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_CreateRun_InvalidProtocol(t *testing.T) {
	tempDir := t.TempDir()
	app := setupTestApp(t, tempDir)

	body := `{
		"node_type": "minimisation",
		"inputs": {
			"steps": -5,
			"coordinates": ["input/system.gro"],
			"topology": "input/system.top"
		}
	}`

	req := httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_CreateRun_UnknownInputKey(t *testing.T) {
	tempDir := t.TempDir()
	app := setupTestApp(t, tempDir)

	body := `{
		"node_type": "minimisation",
		"inputs": {
			"coordinates": ["input/system.gro"],
			"topology": "input/system.top",
			"stpes": 500
		}
	}`

	req := httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_GetRun(t *testing.T) {
	tempDir := t.TempDir()
	persistence := file.NewPersistence(tempDir)

	run := testutil.CreateTestRun(
		testutil.AsCompleted(
			map[string]any{"final_step": int64(312)},
			map[string][]string{"POTENTIAL_ENERGY": {"-1.2e+05", "-1.8e+05"}},
		),
	)
	require.NoError(t, persistence.RunRepository().Create(context.Background(), run))

	app := setupTestApp(t, tempDir)

	req := httptest.NewRequest(http.MethodGet, "/runs/"+run.ID, nil)
	req.Header.Set("Accept", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var fetched models.Run

	err = json.NewDecoder(resp.Body).Decode(&fetched)
	require.NoError(t, err)

	assert.Equal(t, run.ID, fetched.ID)
	assert.Equal(t, models.RunStatusCompleted, fetched.Status)
	assert.Equal(t, float64(312), fetched.Outputs["final_step"])
	assert.Equal(t, []string{"-1.2e+05", "-1.8e+05"}, fetched.Records["POTENTIAL_ENERGY"])
}

func TestAPI_GetRun_NotFound(t *testing.T) {
	tempDir := t.TempDir()
	app := setupTestApp(t, tempDir)

	req := httptest.NewRequest(http.MethodGet, "/runs/non-existent-run", nil)
	req.Header.Set("Accept", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

type listRunsResponse struct {
	Runs        []*models.Run `json:"runs"`
	TotalCount  int64         `json:"total_count"`
	HasNextPage bool          `json:"has_next_page"`
}

func TestAPI_GetRuns_Empty(t *testing.T) {
	tempDir := t.TempDir()
	app := setupTestApp(t, tempDir)

	req := httptest.NewRequest(http.MethodGet, "/runs", nil)
	req.Header.Set("Accept", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var listing listRunsResponse

	err = json.NewDecoder(resp.Body).Decode(&listing)
	require.NoError(t, err)
	assert.Empty(t, listing.Runs)
	assert.Equal(t, int64(0), listing.TotalCount)
	assert.False(t, listing.HasNextPage)
}

func TestAPI_GetRuns_FiltersByStatus(t *testing.T) {
	tempDir := t.TempDir()
	persistence := file.NewPersistence(tempDir)
	ctx := context.Background()

	pending := testutil.CreateTestRun()
	completed := testutil.CreateTestRun(
		testutil.WithNodeType("production"),
		testutil.AsCompleted(map[string]any{"final_step": int64(1000)}, nil),
	)

	require.NoError(t, persistence.RunRepository().Create(ctx, pending))
	require.NoError(t, persistence.RunRepository().Create(ctx, completed))

	app := setupTestApp(t, tempDir)

	req := httptest.NewRequest(http.MethodGet, "/runs", nil)
	req.Header.Set("Accept", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var all listRunsResponse

	err = json.NewDecoder(resp.Body).Decode(&all)
	require.NoError(t, err)
	assert.Len(t, all.Runs, 2)
	assert.Equal(t, int64(2), all.TotalCount)

	req = httptest.NewRequest(http.MethodGet, "/runs?status=completed", nil)
	req.Header.Set("Accept", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var filtered listRunsResponse

	err = json.NewDecoder(resp.Body).Decode(&filtered)
	require.NoError(t, err)
	require.Len(t, filtered.Runs, 1)
	assert.Equal(t, completed.ID, filtered.Runs[0].ID)
}

func TestAPI_GetRuns_InvalidSortField(t *testing.T) {
	tempDir := t.TempDir()
	app := setupTestApp(t, tempDir)

	req := httptest.NewRequest(http.MethodGet, "/runs?sort_by=bogus", nil)
	req.Header.Set("Accept", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_CORS_Headers(t *testing.T) {
	tempDir := t.TempDir()
	app := setupTestApp(t, tempDir)

	req := httptest.NewRequest(http.MethodOptions, "/runs", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestAPI_ContentType_JSON(t *testing.T) {
	tempDir := t.TempDir()
	app := setupTestApp(t, tempDir)

	req := httptest.NewRequest(http.MethodGet, "/nodes", nil)
	req.Header.Set("Accept", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")
}
