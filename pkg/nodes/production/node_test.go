package production

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactory_Metadata(t *testing.T) {
	factory := NewFactory()

	assert.Equal(t, "production", factory.ID())
	assert.Equal(t, "Production", factory.Name())
	assert.NotEmpty(t, factory.Description())

	schema := factory.Schema()
	assert.Equal(t, "object", schema["type"])

	properties, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, properties, "restart")
	assert.Contains(t, properties, "first_step")
}

func TestFactory_CreateDefaults(t *testing.T) {
	node, err := NewFactory().Create(context.Background(), nil)
	require.NoError(t, err)

	controls := node.Controls()

	runtime, err := controls.Input("runtime")
	require.NoError(t, err)
	assert.Equal(t, 1.0, runtime)

	restart, err := controls.Input("restart")
	require.NoError(t, err)
	assert.Equal(t, false, restart)

	firstStep, err := controls.Input("first_step")
	require.NoError(t, err)
	assert.Equal(t, int64(0), firstStep)
}

func TestFactory_CreateWithConfig(t *testing.T) {
	node, err := NewFactory().Create(context.Background(), map[string]any{
		"restart":    true,
		"first_step": float64(5000),
		"runtime":    2.5,
	})
	require.NoError(t, err)

	controls := node.Controls()

	restart, err := controls.Input("restart")
	require.NoError(t, err)
	assert.Equal(t, true, restart)

	firstStep, err := controls.Input("first_step")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), firstStep)

	runtime, err := controls.Input("runtime")
	require.NoError(t, err)
	assert.Equal(t, 2.5, runtime)
}

func TestFactory_CreateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		config map[string]any
	}{
		{
			name:   "zero runtime",
			config: map[string]any{"runtime": 0.0},
		},
		{
			name:   "negative first step",
			config: map[string]any{"first_step": float64(-10)},
		},
		{
			name:   "fractional report interval",
			config: map[string]any{"report_interval": 10.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFactory().Create(context.Background(), tt.config)
			assert.Error(t, err)
		})
	}
}

func TestNode_ApplyInputs(t *testing.T) {
	created, err := NewFactory().Create(context.Background(), nil)
	require.NoError(t, err)

	node, ok := created.(*Node)
	require.True(t, ok)

	controls := node.Controls()
	require.NoError(t, controls.SetInput("restart", true))
	require.NoError(t, controls.SetInput("first_step", 10000))
	require.NoError(t, controls.SetInput("temperature", 310.0))

	require.NoError(t, node.applyInputs())

	assert.True(t, node.proto.Restart)
	assert.Equal(t, int64(10000), node.proto.FirstStep)
	assert.Equal(t, 310.0, node.proto.Temperature)
	assert.Nil(t, node.proto.Pressure)
}

func TestNode_Execute(t *testing.T) {
	stub := filepath.Join(t.TempDir(), "gmx")
	require.NoError(t, os.WriteFile(stub, []byte("#!/bin/sh\nexit 0\n"), 0o755))

	inputDir := t.TempDir()

	gro := filepath.Join(inputDir, "system.gro")
	require.NoError(t, os.WriteFile(gro, []byte("protein\n"), 0o644))

	top := filepath.Join(inputDir, "system.top")
	require.NoError(t, os.WriteFile(top, []byte("[ system ]\n"), 0o644))

	node, err := NewFactory().Create(context.Background(), map[string]any{
		"runtime": 0.1,
	})
	require.NoError(t, err)

	controls := node.Controls()
	require.NoError(t, controls.SetInput("coordinates", []string{gro}))
	require.NoError(t, controls.SetInput("topology", top))
	require.NoError(t, controls.SetInput("engine", "gromacs"))
	require.NoError(t, controls.SetInput("exe", stub))

	workDir := t.TempDir()

	_, err = node.Execute(context.Background(), workDir)
	require.NoError(t, err)

	config, err := os.ReadFile(filepath.Join(workDir, "gromacs.mdp"))
	require.NoError(t, err)
	assert.Contains(t, string(config), "integrator = md")
	assert.Contains(t, string(config), "nsteps = 50000")

	require.NoError(t, controls.Validate())
	assert.True(t, controls.Complete())
}
