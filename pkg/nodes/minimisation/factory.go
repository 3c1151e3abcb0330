// Package minimisation provides the energy minimisation node.
package minimisation

import (
	"context"

	"github.com/simgate/simgate/pkg/protocol"
	"github.com/simgate/simgate/pkg/registry"
)

// Factory creates minimisation nodes.
type Factory struct{}

// NewFactory creates a new factory instance.
func NewFactory() *Factory {
	return &Factory{}
}

// Create creates a new minimisation node, overlaying config on the protocol
// defaults.
func (f *Factory) Create(ctx context.Context, config map[string]any) (registry.Node, error) {
	proto := protocol.NewMinimisation()

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
	return "minimisation"
}

// Name returns the factory name.
func (f *Factory) Name() string {
	return "Minimisation"
}

// Description returns the factory description.
func (f *Factory) Description() string {
	return "Relaxes a molecular system into a local energy minimum using steepest descent"
}

// Schema returns the JSON schema for minimisation node configuration.
func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"steps": map[string]any{
				"type":        "integer",
				"description": "Maximum number of minimisation steps",
				"default":     10000,
				"minimum":     1,
				"maximum":     1000000,
			},
		},
		"additionalProperties": false,
	}
}
