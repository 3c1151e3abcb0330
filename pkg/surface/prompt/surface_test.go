package prompt

import (
	"bytes"
	"context"
	"strings"
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

	return node
}

func TestSurface_CollectScriptedInput(t *testing.T) {
	node := buildNode(t)

	in := strings.NewReader("500\nheavy\n")
	out := &bytes.Buffer{}

	require.NoError(t, node.ShowControls(context.Background(), New(in, out)))
	require.NoError(t, node.Validate())

	v, err := node.Input("steps")
	require.NoError(t, err)
	assert.Equal(t, int64(500), v)

	v, err = node.Input("restraint")
	require.NoError(t, err)
	assert.Equal(t, "heavy", v)

	// The prompts documented help, constraint and default.
	prompts := out.String()
	assert.Contains(t, prompts, "steps: number of steps (between 0 and 100000) [default 10000]")
	assert.Contains(t, prompts, "restraint: restraint to apply (one of none, backbone, heavy, all) [default none]")
}

func TestSurface_EmptyLineKeepsDefault(t *testing.T) {
	node := buildNode(t)

	in := strings.NewReader("\n\n")
	out := &bytes.Buffer{}

	require.NoError(t, node.ShowControls(context.Background(), New(in, out)))
	require.NoError(t, node.Validate())

	v, err := node.Input("steps")
	require.NoError(t, err)
	assert.Equal(t, int64(10000), v)
}

func TestSurface_RepromptsOnInvalidEntry(t *testing.T) {
	node := buildNode(t)

	// First entry is out of range, second conforms; restraint keeps default.
	in := strings.NewReader("200000\n500\n\n")
	out := &bytes.Buffer{}

	require.NoError(t, node.ShowControls(context.Background(), New(in, out)))

	v, err := node.Input("steps")
	require.NoError(t, err)
	assert.Equal(t, int64(500), v)

	assert.Contains(t, out.String(), "invalid value: must be at most 100000 (got 200000)")
}

func TestSurface_GivesUpAfterRepeatedInvalidEntries(t *testing.T) {
	node := buildNode(t)

	in := strings.NewReader("a\nb\nc\n")
	out := &bytes.Buffer{}

	err := node.ShowControls(context.Background(), New(in, out))
	require.Error(t, err)

	verr, ok := gateway.AsValidationError(err)
	require.True(t, ok)
	require.Len(t, verr.Violations, 1)
	assert.Equal(t, "steps", verr.Violations[0].Name)
}

func TestSurface_ExhaustedInputSkipsRemaining(t *testing.T) {
	node := buildNode(t)

	in := strings.NewReader("500")
	out := &bytes.Buffer{}

	require.NoError(t, node.ShowControls(context.Background(), New(in, out)))

	v, err := node.Input("steps")
	require.NoError(t, err)
	assert.Equal(t, int64(500), v)

	v, err = node.Input("restraint")
	require.NoError(t, err)
	assert.Equal(t, "none", v)
}

func TestSurface_CancelledContext(t *testing.T) {
	node := buildNode(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := node.ShowControls(ctx, New(strings.NewReader("500\n"), &bytes.Buffer{}))
	require.ErrorIs(t, err, context.Canceled)
}
