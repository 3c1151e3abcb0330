package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_NodeTypes(t *testing.T) {
	catalog := NewCatalog(testRegistry(t))

	summaries := catalog.NodeTypes()
	require.Len(t, summaries, 2)

	// Sorted by type identifier.
	assert.Equal(t, "minimisation", summaries[0].Type)
	assert.Equal(t, "production", summaries[1].Type)

	for _, summary := range summaries {
		assert.NotEmpty(t, summary.Name)
		assert.NotEmpty(t, summary.Description)
	}
}

func TestCatalog_Describe(t *testing.T) {
	catalog := NewCatalog(testRegistry(t))

	detail, err := catalog.Describe(t.Context(), "minimisation")
	require.NoError(t, err)
	require.NotNil(t, detail)

	assert.Equal(t, "minimisation", detail.Type)
	assert.Equal(t, "Minimisation", detail.Name)
	assert.NotEmpty(t, detail.Description)

	inputs := make(map[string]RequirementDetail, len(detail.Inputs))
	for _, input := range detail.Inputs {
		inputs[input.Name] = input
	}

	steps, ok := inputs["steps"]
	require.True(t, ok)
	assert.Equal(t, "integer", steps.Type)
	assert.Equal(t, int64(10000), steps.Default)
	assert.Contains(t, steps.Constraint, "between")

	coordinates, ok := inputs["coordinates"]
	require.True(t, ok)
	assert.Equal(t, "fileset", coordinates.Type)
	assert.False(t, coordinates.Optional)
	assert.Nil(t, coordinates.Default)

	parameters, ok := inputs["parameters"]
	require.True(t, ok)
	assert.True(t, parameters.Optional)

	outputs := make([]string, 0, len(detail.Outputs))
	for _, output := range detail.Outputs {
		outputs = append(outputs, output.Name)
	}

	assert.Contains(t, outputs, "artifacts")
	assert.Contains(t, outputs, "final_step")

	require.NotNil(t, detail.Schema)
	assert.Equal(t, "object", detail.Schema["type"])

	required, ok := detail.Schema["required"].([]string)
	require.True(t, ok)
	assert.Contains(t, required, "coordinates")
	assert.Contains(t, required, "topology")
	assert.NotContains(t, required, "steps")
}

func TestCatalog_Describe_Unknown(t *testing.T) {
	catalog := NewCatalog(testRegistry(t))

	detail, err := catalog.Describe(t.Context(), "teleportation")
	require.Error(t, err)
	assert.Nil(t, detail)
	assert.True(t, IsNotFoundError(err))
}
