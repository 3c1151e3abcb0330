// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"

	"github.com/simgate/simgate/pkg/nodes/equilibration"
	"github.com/simgate/simgate/pkg/nodes/freeenergy"
	"github.com/simgate/simgate/pkg/nodes/minimisation"
	"github.com/simgate/simgate/pkg/nodes/production"
	"github.com/simgate/simgate/pkg/registry"
)

// NewRegistry builds a registry with every built-in simulation node type
// registered.
func NewRegistry(logger *slog.Logger) *registry.Registry {
	reg := registry.NewRegistry(logger)

	registerNativeNodes(reg)

	return reg
}

func registerNativeNodes(reg *registry.Registry) {
	reg.RegisterNode(minimisation.NewFactory())
	reg.RegisterNode(equilibration.NewFactory())
	reg.RegisterNode(production.NewFactory())
	reg.RegisterNode(freeenergy.NewFactory())
}
