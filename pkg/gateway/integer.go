package gateway

import (
	"fmt"
	"math"
	"strconv"
)

// Integer is a requirement for a whole number with optional inclusive bounds.
type Integer struct {
	help     string
	optional bool
	def      *int64
	min      *int64
	max      *int64
	value    *int64
}

// IntegerOption configures an Integer during construction.
type IntegerOption func(*Integer)

// IntegerDefault sets the default value.
func IntegerDefault(v int64) IntegerOption {
	return func(i *Integer) { i.def = &v }
}

// IntegerMinimum sets the inclusive lower bound.
func IntegerMinimum(v int64) IntegerOption {
	return func(i *Integer) { i.min = &v }
}

// IntegerMaximum sets the inclusive upper bound.
func IntegerMaximum(v int64) IntegerOption {
	return func(i *Integer) { i.max = &v }
}

// IntegerOptional marks the requirement as satisfiable without a value.
func IntegerOptional() IntegerOption {
	return func(i *Integer) { i.optional = true }
}

// NewInteger builds an integer requirement, rejecting inverted bounds and
// defaults outside the bounds.
func NewInteger(help string, opts ...IntegerOption) (*Integer, error) {
	if help == "" {
		return nil, &ConfigurationError{Reason: "help text is required"}
	}

	i := &Integer{help: help}
	for _, opt := range opts {
		opt(i)
	}

	if i.min != nil && i.max != nil && *i.min > *i.max {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("minimum %d exceeds maximum %d", *i.min, *i.max)}
	}

	if i.def != nil {
		if reason, ok := i.conforms(*i.def); !ok {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("default %d %s", *i.def, reason)}
		}
	}

	return i, nil
}

func (i *Integer) Help() string     { return i.help }
func (i *Integer) TypeName() string { return TypeInteger }
func (i *Integer) IsOptional() bool { return i.optional }
func (i *Integer) HasDefault() bool { return i.def != nil }

func (i *Integer) Default() any {
	if i.def == nil {
		return nil
	}

	return *i.def
}

// Minimum returns the lower bound and whether one is set.
func (i *Integer) Minimum() (int64, bool) {
	if i.min == nil {
		return 0, false
	}

	return *i.min, true
}

// Maximum returns the upper bound and whether one is set.
func (i *Integer) Maximum() (int64, bool) {
	if i.max == nil {
		return 0, false
	}

	return *i.max, true
}

func (i *Integer) Satisfied() bool { return i.value != nil || i.def != nil }

// Set binds v. Whole-valued floats are accepted because JSON documents decode
// numbers as float64. Out-of-range values bind and report a violation, which
// stays outstanding for Check until corrected.
func (i *Integer) Set(v any) error {
	val, ok := asInt64(v)
	if !ok {
		return newValidationError("", "must be an integer", v)
	}

	i.value = &val

	if reason, ok := i.conforms(val); !ok {
		return newValidationError("", reason, val)
	}

	return nil
}

func (i *Integer) Parse(token string) error {
	val, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return newValidationError("", "must be an integer", token)
	}

	return i.Set(val)
}

func (i *Integer) Value() (any, error) {
	switch {
	case i.value != nil:
		return *i.value, nil
	case i.def != nil:
		return *i.def, nil
	case i.optional:
		return nil, nil
	default:
		return nil, newValidationError("", "required but no value bound and no default configured", nil)
	}
}

func (i *Integer) Check() error {
	if verr := checkRequired(i.Satisfied(), i.optional); verr != nil {
		return verr
	}

	if i.value != nil {
		if reason, ok := i.conforms(*i.value); !ok {
			return newValidationError("", reason, *i.value)
		}
	}

	return nil
}

func (i *Integer) Constraint() string {
	switch {
	case i.min != nil && i.max != nil:
		return fmt.Sprintf("between %d and %d", *i.min, *i.max)
	case i.min != nil:
		return fmt.Sprintf("at least %d", *i.min)
	case i.max != nil:
		return fmt.Sprintf("at most %d", *i.max)
	default:
		return ""
	}
}

func (i *Integer) Schema() map[string]any {
	s := map[string]any{
		"type":        "integer",
		"description": i.help,
	}

	if i.min != nil {
		s["minimum"] = *i.min
	}

	if i.max != nil {
		s["maximum"] = *i.max
	}

	if i.def != nil {
		s["default"] = *i.def
	}

	return s
}

func (i *Integer) conforms(v int64) (string, bool) {
	if i.min != nil && v < *i.min {
		return fmt.Sprintf("must be at least %d", *i.min), false
	}

	if i.max != nil && v > *i.max {
		return fmt.Sprintf("must be at most %d", *i.max), false
	}

	return "", true
}

// asInt64 widens the integer kinds that reach us from Go callers, flags and
// decoded JSON documents. Fractional floats are rejected.
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}

		return int64(n), true
	default:
		return 0, false
	}
}
