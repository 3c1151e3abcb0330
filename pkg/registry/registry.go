// Package registry tracks the available node types and builds configured
// nodes from their factories.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/simgate/simgate/pkg/gateway"
	"github.com/simgate/simgate/pkg/process"
)

// Node is one executable unit: a typed requirement surface plus the run
// behaviour behind it.
type Node interface {
	// Controls returns the requirement surface used to bind and validate
	// inputs and outputs.
	Controls() *gateway.Node

	// Execute runs the node in workDir once its inputs have been
	// validated, setting output values as it finishes. The returned
	// records hold the time series the run produced.
	Execute(ctx context.Context, workDir string) (*process.RecordSet, error)
}

// NodeFactory creates node instances and provides metadata about the node
// type.
type NodeFactory interface {
	// Create builds a node whose requirements reflect config.
	Create(ctx context.Context, config map[string]any) (Node, error)

	// ID returns the unique identifier for this node type.
	ID() string

	// Name returns the human-readable name for this node type.
	Name() string

	// Description returns a description of what this node does.
	Description() string

	// Schema returns the JSON schema for configuring this node.
	Schema() map[string]any
}

// Registry holds the node factories available to the runner and the API.
type Registry struct {
	logger    *slog.Logger
	factories map[string]NodeFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger,
		factories: make(map[string]NodeFactory),
	}
}

// RegisterNode makes a node factory available under its ID.
func (r *Registry) RegisterNode(factory NodeFactory) {
	r.factories[factory.ID()] = factory
}

// Factory returns the factory registered for nodeType.
func (r *Registry) Factory(nodeType string) (NodeFactory, error) {
	factory, ok := r.factories[nodeType]
	if !ok {
		return nil, fmt.Errorf("node type '%s' not registered", nodeType)
	}

	return factory, nil
}

// CreateNode builds a node of nodeType configured with config.
func (r *Registry) CreateNode(ctx context.Context, nodeType string, config map[string]any) (Node, error) {
	factory, err := r.Factory(nodeType)
	if err != nil {
		return nil, err
	}

	r.logger.DebugContext(ctx, "Creating node", "node_type", nodeType)

	return factory.Create(ctx, config)
}

// NodeTypes returns the registered node type IDs in sorted order.
func (r *Registry) NodeTypes() []string {
	types := make([]string, 0, len(r.factories))
	for nodeType := range r.factories {
		types = append(types, nodeType)
	}

	slices.Sort(types)

	return types
}

// HealthCheck reports whether the registry is serviceable.
func (r *Registry) HealthCheck() (string, bool) {
	if len(r.factories) == 0 {
		return "No node types registered", false
	}

	return fmt.Sprintf("%d node types registered", len(r.factories)), true
}

// Factories returns the registered factories sorted by ID.
func (r *Registry) Factories() []NodeFactory {
	factories := make([]NodeFactory, 0, len(r.factories))
	for _, factory := range r.factories {
		factories = append(factories, factory)
	}

	slices.SortFunc(factories, func(a, b NodeFactory) int {
		return strings.Compare(a.ID(), b.ID())
	})

	return factories
}
