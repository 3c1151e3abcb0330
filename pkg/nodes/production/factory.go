// Package production provides the production molecular dynamics node.
package production

import (
	"context"

	"github.com/simgate/simgate/pkg/protocol"
	"github.com/simgate/simgate/pkg/registry"
)

// Factory creates production nodes.
type Factory struct{}

// NewFactory creates a new factory instance.
func NewFactory() *Factory {
	return &Factory{}
}

// Create creates a new production node, overlaying config on the protocol
// defaults.
func (f *Factory) Create(ctx context.Context, config map[string]any) (registry.Node, error) {
	proto := protocol.NewProduction()

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
	return "production"
}

// Name returns the factory name.
func (f *Factory) Name() string {
	return "Production"
}

// Description returns the factory description.
func (f *Factory) Description() string {
	return "Runs production molecular dynamics at constant temperature, recording thermodynamic state at a fixed interval"
}

// Schema returns the JSON schema for production node configuration.
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
				"default":     1.0,
				"exclusiveMinimum": 0,
			},
			"temperature": map[string]any{
				"type":        "number",
				"description": "Temperature in Kelvin",
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
				"default":     200,
				"minimum":     1,
			},
			"restart_interval": map[string]any{
				"type":        "integer",
				"description": "Steps between restart checkpoints",
				"default":     1000,
				"minimum":     1,
			},
			"restart": map[string]any{
				"type":        "boolean",
				"description": "Continue from a previous run instead of regenerating velocities",
				"default":     false,
			},
			"first_step": map[string]any{
				"type":        "integer",
				"description": "Step number offset when restarting",
				"default":     0,
				"minimum":     0,
			},
		},
		"additionalProperties": false,
	}
}
