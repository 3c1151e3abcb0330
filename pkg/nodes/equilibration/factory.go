// Package equilibration provides the thermal equilibration node.
package equilibration

import (
	"context"

	"github.com/simgate/simgate/pkg/protocol"
	"github.com/simgate/simgate/pkg/registry"
)

// Factory creates equilibration nodes.
type Factory struct{}

// NewFactory creates a new factory instance.
func NewFactory() *Factory {
	return &Factory{}
}

// Create creates a new equilibration node, overlaying config on the protocol
// defaults.
func (f *Factory) Create(ctx context.Context, config map[string]any) (registry.Node, error) {
	proto := protocol.NewEquilibration()

	if err := protocol.Decode(config, proto); err != nil {
		return nil, err
	}

	if err := proto.Validate(); err != nil {
		return nil, err
	}

	return New(proto)
}

// ID returns the factory ID.
func (f *Factory) ID() string {
	return "equilibration"
}

// Name returns the factory name.
func (f *Factory) Name() string {
	return "Equilibration"
}

// Description returns the factory description.
func (f *Factory) Description() string {
	return "Equilibrates a molecular system towards a target temperature, optionally under pressure coupling and positional restraints"
}

// Schema returns the JSON schema for equilibration node configuration.
func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"timestep": map[string]any{
				"type":        "number",
				"description": "Integration timestep in femtoseconds",
				"default":     2.0,
				"exclusiveMinimum": 0,
			},
			"runtime": map[string]any{
				"type":        "number",
				"description": "Total simulation time in nanoseconds",
				"default":     0.2,
				"exclusiveMinimum": 0,
			},
			"start_temperature": map[string]any{
				"type":        "number",
				"description": "Starting temperature in Kelvin",
				"default":     300.0,
				"minimum":     0,
				"maximum":     1000,
			},
			"end_temperature": map[string]any{
				"type":        "number",
				"description": "Target temperature in Kelvin",
				"default":     300.0,
				"minimum":     0,
				"maximum":     1000,
			},
			"pressure": map[string]any{
				"type":        "number",
				"description": "Pressure in atmospheres; omit for constant volume",
				"minimum":     0,
			},
			"report_interval": map[string]any{
				"type":        "integer",
				"description": "Steps between energy records",
				"default":     100,
				"minimum":     1,
			},
			"restart_interval": map[string]any{
				"type":        "integer",
				"description": "Steps between restart checkpoints",
				"default":     500,
				"minimum":     1,
			},
			"restraint": map[string]any{
				"type":        "string",
				"description": "Atoms held in place during the run",
				"enum":        []string{"none", "backbone", "heavy", "all"},
				"default":     "none",
			},
		},
		"additionalProperties": false,
	}
}
