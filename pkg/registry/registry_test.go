package registry

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/simgate/simgate/pkg/gateway"
	"github.com/simgate/simgate/pkg/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type stubNode struct {
	controls *gateway.Node
}

func (n *stubNode) Controls() *gateway.Node { return n.controls }

func (n *stubNode) Execute(_ context.Context, _ string) (*process.RecordSet, error) {
	return process.NewRecordSet(), nil
}

type stubFactory struct {
	id      string
	configs []map[string]any
}

func (f *stubFactory) ID() string             { return f.id }
func (f *stubFactory) Name() string           { return "Stub" }
func (f *stubFactory) Description() string    { return "A stub node type." }
func (f *stubFactory) Schema() map[string]any { return map[string]any{"type": "object"} }

func (f *stubFactory) Create(_ context.Context, config map[string]any) (Node, error) {
	f.configs = append(f.configs, config)

	controls, err := gateway.NewNode("A stub node.")
	if err != nil {
		return nil, err
	}

	return &stubNode{controls: controls}, nil
}

func TestRegistry_RegisterAndCreateNode(t *testing.T) {
	reg := NewRegistry(testLogger())
	factory := &stubFactory{id: "stub"}
	reg.RegisterNode(factory)

	config := map[string]any{"steps": float64(500)}

	node, err := reg.CreateNode(t.Context(), "stub", config)
	require.NoError(t, err)
	require.NotNil(t, node)

	require.Len(t, factory.configs, 1)
	assert.Equal(t, config, factory.configs[0])
}

func TestRegistry_Factory_Unknown(t *testing.T) {
	reg := NewRegistry(testLogger())

	factory, err := reg.Factory("teleportation")
	require.Error(t, err)
	assert.Nil(t, factory)
	assert.Contains(t, err.Error(), "not registered")
}

func TestRegistry_NodeTypes_Sorted(t *testing.T) {
	reg := NewRegistry(testLogger())
	reg.RegisterNode(&stubFactory{id: "production"})
	reg.RegisterNode(&stubFactory{id: "equilibration"})
	reg.RegisterNode(&stubFactory{id: "minimisation"})

	assert.Equal(t, []string{"equilibration", "minimisation", "production"}, reg.NodeTypes())

	factories := reg.Factories()
	require.Len(t, factories, 3)
	assert.Equal(t, "equilibration", factories[0].ID())
	assert.Equal(t, "production", factories[2].ID())
}

func TestRegistry_HealthCheck(t *testing.T) {
	reg := NewRegistry(testLogger())

	message, healthy := reg.HealthCheck()
	assert.False(t, healthy)
	assert.Contains(t, message, "No node types")

	reg.RegisterNode(&stubFactory{id: "stub"})

	message, healthy = reg.HealthCheck()
	assert.True(t, healthy)
	assert.Contains(t, message, "1 node types")
}

func requirementSchema(t *testing.T) map[string]any {
	t.Helper()

	node, err := gateway.NewNode("A schema fixture.")
	require.NoError(t, err)

	steps, err := gateway.NewInteger("number of steps",
		gateway.IntegerMinimum(1),
		gateway.IntegerDefault(100))
	require.NoError(t, err)
	require.NoError(t, node.AddInput("steps", steps))

	coordinates, err := gateway.NewFileSet("coordinate files")
	require.NoError(t, err)
	require.NoError(t, node.AddInput("coordinates", coordinates))

	return node.Schema()
}

func TestValidateDocument(t *testing.T) {
	t.Parallel()

	schema := requirementSchema(t)

	tests := []struct {
		name     string
		document map[string]any
		wantErr  string
	}{
		{
			name: "valid document",
			document: map[string]any{
				"steps":       float64(500),
				"coordinates": []any{"input/system.gro"},
			},
		},
		{
			name:     "missing required input",
			document: map[string]any{"steps": float64(500)},
			wantErr:  "coordinates",
		},
		{
			name: "unknown input key",
			document: map[string]any{
				"coordinates": []any{"input/system.gro"},
				"stpes":       float64(500),
			},
			wantErr: "stpes",
		},
		{
			name: "wrong value type",
			document: map[string]any{
				"steps":       "fast",
				"coordinates": []any{"input/system.gro"},
			},
			wantErr: "steps",
		},
		{
			name: "empty file set",
			document: map[string]any{
				"coordinates": []any{},
			},
			wantErr: "coordinates",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateDocument(schema, tt.document)
			if tt.wantErr == "" {
				assert.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
