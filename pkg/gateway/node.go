package gateway

import (
	"context"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Author identifies one contributor to a node definition.
type Author struct {
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Affiliation string `json:"affiliation,omitempty"`
}

// Node aggregates named input and output requirements with metadata and a
// validation lifecycle. It is a one-shot descriptor plus value container for
// a single execution: construct, register requirements, collect values,
// validate, read results. It is never reused across runs.
//
// A node and its requirements must be mutated by only one goroutine at a
// time. Nothing here is guarded internally; callers sequence access through
// their own orchestration.
type Node struct {
	description string
	licence     string
	authors     []Author

	inputNames  []string
	inputs      map[string]Requirement
	outputNames []string
	outputs     map[string]Requirement

	complete bool
}

// NewNode builds an empty node with the given description.
func NewNode(description string) (*Node, error) {
	if description == "" {
		return nil, &ConfigurationError{Reason: "node description is required"}
	}

	return &Node{
		description: description,
		inputs:      make(map[string]Requirement),
		outputs:     make(map[string]Requirement),
	}, nil
}

func (n *Node) Description() string { return n.description }

// Licence returns the licence text, or "".
func (n *Node) Licence() string { return n.licence }

// Authors returns the authors in registration order.
func (n *Node) Authors() []Author { return slices.Clone(n.authors) }

// Complete reports whether a Validate call has succeeded.
func (n *Node) Complete() bool { return n.complete }

// AddInput registers an input requirement under a unique name. Registration
// order is preserved for documentation and flag ordering.
func (n *Node) AddInput(name string, req Requirement) error {
	return n.add(name, req, "input", &n.inputNames, n.inputs)
}

// AddOutput registers an output requirement under a unique name.
func (n *Node) AddOutput(name string, req Requirement) error {
	return n.add(name, req, "output", &n.outputNames, n.outputs)
}

func (n *Node) add(name string, req Requirement, mapping string, names *[]string, reqs map[string]Requirement) error {
	if n.complete {
		return fmt.Errorf("add %s %q: %w", mapping, name, ErrNodeComplete)
	}

	if name == "" {
		return &ConfigurationError{Reason: mapping + " name is required"}
	}

	if req == nil {
		return &ConfigurationError{Name: name, Reason: "requirement must not be nil"}
	}

	if _, exists := reqs[name]; exists {
		return &DuplicateNameError{Name: name, Mapping: mapping}
	}

	*names = append(*names, name)
	reqs[name] = req

	return nil
}

// AddAuthor appends an author. The name is required; the email is checked
// when present.
func (n *Node) AddAuthor(name, email, affiliation string) error {
	if name == "" {
		return &ConfigurationError{Reason: "author name is required"}
	}

	if email != "" {
		if err := validate.Var(email, "email"); err != nil {
			return &ConfigurationError{Name: name, Reason: fmt.Sprintf("invalid author email %q", email)}
		}
	}

	n.authors = append(n.authors, Author{Name: name, Email: email, Affiliation: affiliation})

	return nil
}

// SetLicence overwrites the licence text.
func (n *Node) SetLicence(text string) {
	n.licence = text
}

// InputNames returns the input names in registration order.
func (n *Node) InputNames() []string { return slices.Clone(n.inputNames) }

// OutputNames returns the output names in registration order.
func (n *Node) OutputNames() []string { return slices.Clone(n.outputNames) }

// InputRequirement returns the named input requirement for inspection.
func (n *Node) InputRequirement(name string) (Requirement, error) {
	req, ok := n.inputs[name]
	if !ok {
		return nil, &UnknownRequirementError{Name: name, Mapping: "input"}
	}

	return req, nil
}

// OutputRequirement returns the named output requirement for inspection.
func (n *Node) OutputRequirement(name string) (Requirement, error) {
	req, ok := n.outputs[name]
	if !ok {
		return nil, &UnknownRequirementError{Name: name, Mapping: "output"}
	}

	return req, nil
}

// Input returns the bound or default value of the named input.
func (n *Node) Input(name string) (any, error) {
	req, ok := n.inputs[name]
	if !ok {
		return nil, &UnknownRequirementError{Name: name, Mapping: "input"}
	}

	v, err := req.Value()
	if err != nil {
		return nil, nameViolations(name, err)
	}

	return v, nil
}

// SetInput binds a value to the named input, applying the requirement's
// constraints.
func (n *Node) SetInput(name string, value any) error {
	if n.complete {
		return fmt.Errorf("set input %q: %w", name, ErrNodeComplete)
	}

	req, ok := n.inputs[name]
	if !ok {
		return &UnknownRequirementError{Name: name, Mapping: "input"}
	}

	return nameViolations(name, req.Set(value))
}

// Output returns the bound or default value of the named output.
func (n *Node) Output(name string) (any, error) {
	req, ok := n.outputs[name]
	if !ok {
		return nil, &UnknownRequirementError{Name: name, Mapping: "output"}
	}

	v, err := req.Value()
	if err != nil {
		return nil, nameViolations(name, err)
	}

	return v, nil
}

// SetOutput binds a value to the named output, applying the requirement's
// constraints. Fails once the node is complete.
func (n *Node) SetOutput(name string, value any) error {
	if n.complete {
		return fmt.Errorf("set output %q: %w", name, ErrNodeComplete)
	}

	req, ok := n.outputs[name]
	if !ok {
		return &UnknownRequirementError{Name: name, Mapping: "output"}
	}

	return nameViolations(name, req.Set(value))
}

// ShowControls hands every input to the surface for collection, in
// registration order. Interactive surfaces block until the operator is done;
// parse-style surfaces return immediately. The surface borrows the
// requirements only for the duration of the call.
func (n *Node) ShowControls(ctx context.Context, surface ControlSurface) error {
	if n.complete {
		return fmt.Errorf("show controls: %w", ErrNodeComplete)
	}

	bindings := make([]Binding, 0, len(n.inputNames))
	for _, name := range n.inputNames {
		bindings = append(bindings, Binding{Name: name, Requirement: n.inputs[name]})
	}

	return surface.Collect(ctx, bindings)
}

// ValidateInputs checks every input in registration order and reports all
// outstanding violations in one aggregate. It never completes the node, so
// it can gate execution while the outputs are still unbound.
func (n *Node) ValidateInputs() error {
	violations := collectViolations(n.inputNames, n.inputs)

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}

	return nil
}

// Validate checks every input and output in registration order and reports
// all outstanding violations in one aggregate, not just the first. On
// success the node becomes complete and further mutation fails; on failure
// it stays open so values can be corrected and validated again.
func (n *Node) Validate() error {
	violations := collectViolations(n.inputNames, n.inputs)
	violations = append(violations, collectViolations(n.outputNames, n.outputs)...)

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}

	n.complete = true

	return nil
}

func collectViolations(names []string, reqs map[string]Requirement) []Violation {
	var violations []Violation

	for _, name := range names {
		err := reqs[name].Check()
		if err == nil {
			continue
		}

		if verr, ok := AsValidationError(nameViolations(name, err)); ok {
			violations = append(violations, verr.Violations...)
			continue
		}

		violations = append(violations, Violation{Name: name, Reason: err.Error()})
	}

	return violations
}

// InputValues snapshots the current input values keyed by name, skipping
// unsatisfied optional inputs.
func (n *Node) InputValues() (map[string]any, error) {
	return values(n.inputNames, n.inputs)
}

// OutputValues snapshots the current output values keyed by name, skipping
// unsatisfied optional outputs.
func (n *Node) OutputValues() (map[string]any, error) {
	return values(n.outputNames, n.outputs)
}

func values(names []string, reqs map[string]Requirement) (map[string]any, error) {
	out := make(map[string]any, len(names))

	for _, name := range names {
		v, err := reqs[name].Value()
		if err != nil {
			return nil, nameViolations(name, err)
		}

		if v == nil {
			continue
		}

		out[name] = v
	}

	return out, nil
}

// Schema renders the inputs as one JSON-schema object document, suitable for
// publication and for validating input documents before binding.
func (n *Node) Schema() map[string]any {
	properties := make(map[string]any, len(n.inputNames))
	required := []string{}

	for _, name := range n.inputNames {
		req := n.inputs[name]
		properties[name] = req.Schema()

		if !req.IsOptional() && !req.HasDefault() {
			required = append(required, name)
		}
	}

	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}
