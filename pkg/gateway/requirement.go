package gateway

import "context"

// Type names reported by Requirement.TypeName and used for flag derivation.
const (
	TypeBoolean = "boolean"
	TypeInteger = "integer"
	TypeFloat   = "float"
	TypeString  = "string"
	TypeFile    = "file"
	TypeFileSet = "fileset"
)

// Requirement describes and enforces the contract for one named value. A
// requirement is a pure descriptor: it checks kinds, bounds and allowed sets,
// never path existence or other environmental facts.
//
// Set binds the supplied value even when it violates a bound or allowed set,
// and reports the violation to the caller; the violation stays outstanding
// until a conforming value replaces it, so a later Check (or Node.Validate)
// reports it again. Values of the wrong kind are rejected without binding.
type Requirement interface {
	// Help returns the human-readable description.
	Help() string

	// TypeName returns one of the Type* constants.
	TypeName() string

	// IsOptional reports whether the requirement may legitimately stay unbound.
	IsOptional() bool

	// HasDefault reports whether a default value was configured.
	HasDefault() bool

	// Default returns the configured default, or nil.
	Default() any

	// Satisfied reports whether a value is bound or a default exists.
	Satisfied() bool

	// Set binds a value. Wrong-kind values return a ValidationError without
	// binding; constraint violations bind and return a ValidationError.
	Set(v any) error

	// Parse converts a string token into a typed value and binds it.
	Parse(token string) error

	// Value returns the bound value, else the default. Unsatisfied optional
	// requirements return nil; unsatisfied required ones a ValidationError.
	Value() (any, error)

	// Check reports the current outstanding violation, if any.
	Check() error

	// Constraint returns a short human-readable constraint summary, or "".
	Constraint() string

	// Schema returns the JSON-schema property for this requirement.
	Schema() map[string]any
}

// Binding pairs a registered name with its requirement for presentation by a
// control surface. The surface borrows the requirement to read and write its
// value; the node keeps ownership.
type Binding struct {
	Name        string
	Requirement Requirement
}

// ControlSurface presents requirements to an operator or script and collects
// values back. Interactive implementations block until the operator finishes;
// non-interactive ones return as soon as their source is exhausted.
type ControlSurface interface {
	Collect(ctx context.Context, bindings []Binding) error
}

// checkRequired is the shared satisfaction check behind every variant's
// Check. Violations are reported unnamed; the node fills in the registered
// name when it aggregates.
func checkRequired(satisfied, optional bool) *ValidationError {
	if satisfied || optional {
		return nil
	}

	return newValidationError("", "required but no value bound and no default configured", nil)
}
