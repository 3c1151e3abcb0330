// Package gateway models one unit of batch work as a node: an ordered set of
// named, typed, constrained input and output requirements plus metadata and a
// validation lifecycle.
package gateway

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel anchors for the error taxonomy. Typed errors below unwrap to these
// so callers can branch with errors.Is.
var (
	// ErrConfiguration indicates a malformed requirement or node definition.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrValidation indicates a bad or missing value.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateName indicates a requirement name registered twice.
	ErrDuplicateName = errors.New("name already registered")

	// ErrUnknownRequirement indicates a lookup for an unregistered name.
	ErrUnknownRequirement = errors.New("requirement not registered")

	// ErrNodeComplete indicates mutation of a node after successful validation.
	ErrNodeComplete = errors.New("node already complete")
)

// ConfigurationError reports a definition-time mistake: inverted bounds, a
// default outside its own constraints, an empty allowed set. These are
// programmer errors and are never recovered.
type ConfigurationError struct {
	Name   string // requirement name, when known
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("configuration: %s", e.Reason)
	}
	return fmt.Sprintf("configuration of %q: %s", e.Name, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// Violation is one value problem on one named requirement.
type Violation struct {
	Name   string
	Reason string
	Value  any // the offending value, nil when the problem is absence
}

func (v Violation) String() string {
	switch {
	case v.Name == "" && v.Value == nil:
		return v.Reason
	case v.Name == "":
		return fmt.Sprintf("%s (got %v)", v.Reason, v.Value)
	case v.Value == nil:
		return fmt.Sprintf("%s: %s", v.Name, v.Reason)
	default:
		return fmt.Sprintf("%s: %s (got %v)", v.Name, v.Reason, v.Value)
	}
}

// ValidationError carries every outstanding violation found in one pass so
// the operator sees the complete list, not just the first problem.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 1 {
		return e.Violations[0].String()
	}

	var b strings.Builder

	fmt.Fprintf(&b, "%d validation errors:", len(e.Violations))

	for i, v := range e.Violations {
		fmt.Fprintf(&b, "\n  %d. %s", i+1, v.String())
	}

	return b.String()
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func newValidationError(name, reason string, value any) *ValidationError {
	return &ValidationError{Violations: []Violation{{Name: name, Reason: reason, Value: value}}}
}

// DuplicateNameError reports a second registration of the same name in one
// mapping ("input" or "output").
type DuplicateNameError struct {
	Name    string
	Mapping string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("%s %q already registered", e.Mapping, e.Name)
}

func (e *DuplicateNameError) Unwrap() error { return ErrDuplicateName }

// UnknownRequirementError reports a lookup or binding against a name that was
// never registered.
type UnknownRequirementError struct {
	Name    string
	Mapping string
}

func (e *UnknownRequirementError) Error() string {
	return fmt.Sprintf("%s %q not registered", e.Mapping, e.Name)
}

func (e *UnknownRequirementError) Unwrap() error { return ErrUnknownRequirement }

// IsConfigurationError checks whether err is a definition-time failure.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsValidationError checks whether err is a value failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsDuplicateNameError checks whether err is a duplicate registration.
func IsDuplicateNameError(err error) bool {
	return errors.Is(err, ErrDuplicateName)
}

// IsUnknownRequirementError checks whether err is an unregistered-name lookup.
func IsUnknownRequirementError(err error) bool {
	return errors.Is(err, ErrUnknownRequirement)
}

// AsValidationError extracts the structured violation list from err, if any.
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}

	return nil, false
}

// nameViolations rewrites the unnamed violations in err to carry name.
// Requirements report violations without a name because registration names
// live on the node; callers that know the name attach it here.
func nameViolations(name string, err error) error {
	verr, ok := AsValidationError(err)
	if !ok {
		return err
	}

	named := make([]Violation, len(verr.Violations))

	for i, v := range verr.Violations {
		if v.Name == "" {
			v.Name = name
		}

		named[i] = v
	}

	return &ValidationError{Violations: named}
}
