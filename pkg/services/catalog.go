package services

import (
	"context"
	"fmt"

	"github.com/simgate/simgate/pkg/gateway"
	"github.com/simgate/simgate/pkg/registry"
)

// NodeTypeSummary is one catalog listing entry.
type NodeTypeSummary struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RequirementDetail documents one input or output requirement of a node
// type: everything an operator needs to fill the value in.
type RequirementDetail struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Help       string `json:"help"`
	Optional   bool   `json:"optional"`
	Default    any    `json:"default,omitempty"`
	Constraint string `json:"constraint,omitempty"`
}

// NodeTypeDetail is the full catalog entry for one node type: factory
// metadata, the requirement surface of a default-configured node and the
// JSON schema input documents are validated against.
type NodeTypeDetail struct {
	Type        string              `json:"type"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Authors     []gateway.Author    `json:"authors,omitempty"`
	Licence     string              `json:"licence,omitempty"`
	Inputs      []RequirementDetail `json:"inputs"`
	Outputs     []RequirementDetail `json:"outputs"`
	Schema      map[string]any      `json:"schema"`
}

// Catalog exposes the registered node types for listing and documentation.
type Catalog struct {
	registry *registry.Registry
}

// NewCatalog creates a new catalog service.
func NewCatalog(r *registry.Registry) *Catalog {
	return &Catalog{registry: r}
}

// NodeTypes lists the registered node types sorted by type identifier.
func (c *Catalog) NodeTypes() []NodeTypeSummary {
	factories := c.registry.Factories()
	summaries := make([]NodeTypeSummary, 0, len(factories))

	for _, factory := range factories {
		summaries = append(summaries, NodeTypeSummary{
			Type:        factory.ID(),
			Name:        factory.Name(),
			Description: factory.Description(),
		})
	}

	return summaries
}

// Describe builds the full catalog entry for nodeType. The requirement
// surface is taken from a node created with default configuration, so the
// documented defaults are the ones a run without overrides would use.
func (c *Catalog) Describe(ctx context.Context, nodeType string) (*NodeTypeDetail, error) {
	factory, err := c.registry.Factory(nodeType)
	if err != nil {
		return nil, &ServiceError{
			Op:      "Describe",
			Code:    "UNKNOWN_NODE_TYPE",
			Message: fmt.Sprintf("node type '%s' is not registered", nodeType),
			Err:     ErrNodeTypeNotFound,
		}
	}

	node, err := factory.Create(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build default %s node: %w", nodeType, err)
	}

	controls := node.Controls()

	inputs, err := requirementDetails(controls.InputNames(), controls.InputRequirement)
	if err != nil {
		return nil, err
	}

	outputs, err := requirementDetails(controls.OutputNames(), controls.OutputRequirement)
	if err != nil {
		return nil, err
	}

	return &NodeTypeDetail{
		Type:        factory.ID(),
		Name:        factory.Name(),
		Description: controls.Description(),
		Authors:     controls.Authors(),
		Licence:     controls.Licence(),
		Inputs:      inputs,
		Outputs:     outputs,
		Schema:      controls.Schema(),
	}, nil
}

func requirementDetails(names []string, lookup func(string) (gateway.Requirement, error)) ([]RequirementDetail, error) {
	details := make([]RequirementDetail, 0, len(names))

	for _, name := range names {
		req, err := lookup(name)
		if err != nil {
			return nil, err
		}

		details = append(details, RequirementDetail{
			Name:       name,
			Type:       req.TypeName(),
			Help:       req.Help(),
			Optional:   req.IsOptional(),
			Default:    req.Default(),
			Constraint: req.Constraint(),
		})
	}

	return details, nil
}
