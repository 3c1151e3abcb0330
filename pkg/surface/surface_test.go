package surface

import (
	"context"
	"testing"

	"github.com/simgate/simgate/pkg/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildNode(t *testing.T) *gateway.Node {
	t.Helper()

	node, err := gateway.NewNode("test node")
	require.NoError(t, err)

	steps, err := gateway.NewInteger("number of steps",
		gateway.IntegerMinimum(0), gateway.IntegerMaximum(100000), gateway.IntegerDefault(10000))
	require.NoError(t, err)
	require.NoError(t, node.AddInput("steps", steps))

	restraint, err := gateway.NewString("restraint to apply",
		gateway.StringAllowed("none", "backbone", "heavy", "all"), gateway.StringDefault("none"))
	require.NoError(t, err)
	require.NoError(t, node.AddInput("restraint", restraint))

	coords, err := gateway.NewFileSet("coordinate files")
	require.NoError(t, err)
	require.NoError(t, node.AddInput("coordinates", coords))

	return node
}

func TestDocument_Collect(t *testing.T) {
	node := buildNode(t)

	doc := Document{
		"steps":       float64(500), // JSON numbers arrive as float64
		"restraint":   "heavy",
		"coordinates": []any{"a.gro", "b.gro"},
	}

	require.NoError(t, node.ShowControls(context.Background(), doc))

	v, err := node.Input("steps")
	require.NoError(t, err)
	assert.Equal(t, int64(500), v)

	v, err = node.Input("restraint")
	require.NoError(t, err)
	assert.Equal(t, "heavy", v)

	require.NoError(t, node.Validate())
}

func TestDocument_CollectPartial(t *testing.T) {
	node := buildNode(t)

	// Missing keys keep their defaults; only coordinates is required.
	doc := Document{"coordinates": []any{"a.gro"}}

	require.NoError(t, node.ShowControls(context.Background(), doc))
	require.NoError(t, node.Validate())

	v, err := node.Input("steps")
	require.NoError(t, err)
	assert.Equal(t, int64(10000), v)
}

func TestDocument_CollectAggregatesProblems(t *testing.T) {
	node := buildNode(t)

	doc := Document{
		"steps":     float64(200000),
		"restraint": "sidechain",
		"stepz":     float64(10),
	}

	err := node.ShowControls(context.Background(), doc)
	require.Error(t, err)

	verr, ok := gateway.AsValidationError(err)
	require.True(t, ok)
	require.Len(t, verr.Violations, 3)

	names := make([]string, 0, len(verr.Violations))
	for _, violation := range verr.Violations {
		names = append(names, violation.Name)
	}

	assert.Contains(t, names, "steps")
	assert.Contains(t, names, "restraint")
	assert.Contains(t, names, "stepz")
}

func TestDocument_UnknownKeyReason(t *testing.T) {
	node := buildNode(t)

	err := node.ShowControls(context.Background(), Document{"stepz": 1})
	require.Error(t, err)

	verr, ok := gateway.AsValidationError(err)
	require.True(t, ok)
	require.Len(t, verr.Violations, 1)
	assert.Equal(t, "stepz", verr.Violations[0].Name)
	assert.Equal(t, "not a recognised input", verr.Violations[0].Reason)
}
