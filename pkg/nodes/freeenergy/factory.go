// Package freeenergy provides the alchemical free energy window node.
package freeenergy

import (
	"context"

	"github.com/simgate/simgate/pkg/protocol"
	"github.com/simgate/simgate/pkg/registry"
)

// Factory creates free energy nodes.
type Factory struct{}

// NewFactory creates a new factory instance.
func NewFactory() *Factory {
	return &Factory{}
}

// Create creates a new free energy node, overlaying config on the protocol
// defaults. The window schedule itself is configuration-only: an explicit
// lambda_values list cannot be bound through the requirement surface.
func (f *Factory) Create(ctx context.Context, config map[string]any) (registry.Node, error) {
	proto := protocol.NewFreeEnergy()

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
	return "freeenergy"
}

// Name returns the factory name.
func (f *Factory) Name() string {
	return "Free energy"
}

// Description returns the factory description.
func (f *Factory) Description() string {
	return "Runs one window of an alchemical free energy perturbation at a fixed lambda within a window schedule"
}

// Schema returns the JSON schema for free energy node configuration.
func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"lambda": map[string]any{
				"type":        "number",
				"description": "Coupling parameter of this window",
				"default":     0.0,
				"minimum":     0,
				"maximum":     1,
			},
			"lambda_values": map[string]any{
				"type":        "array",
				"description": "Explicit ascending window schedule containing lambda",
				"items": map[string]any{
					"type":    "number",
					"minimum": 0,
					"maximum": 1,
				},
				"minItems": 2,
			},
			"min_lambda": map[string]any{
				"type":        "number",
				"description": "Lower bound of the uniform window grid",
				"default":     0.0,
				"minimum":     0,
				"maximum":     1,
			},
			"max_lambda": map[string]any{
				"type":        "number",
				"description": "Upper bound of the uniform window grid",
				"default":     1.0,
				"minimum":     0,
				"maximum":     1,
			},
			"num_lambda": map[string]any{
				"type":        "integer",
				"description": "Number of windows in the uniform grid",
				"default":     11,
				"minimum":     2,
			},
			"perturbation": map[string]any{
				"type":        "string",
				"description": "Alchemical pathway",
				"enum": []string{
					"full", "discharge_soft", "vanish_soft",
					"flip", "grow_soft", "charge_soft",
				},
				"default": "full",
			},
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
		},
		"additionalProperties": false,
	}
}
