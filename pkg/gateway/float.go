package gateway

import (
	"fmt"
	"strconv"
)

// Float is a requirement for a real number with optional inclusive bounds.
type Float struct {
	help     string
	optional bool
	def      *float64
	min      *float64
	max      *float64
	value    *float64
}

// FloatOption configures a Float during construction.
type FloatOption func(*Float)

// FloatDefault sets the default value.
func FloatDefault(v float64) FloatOption {
	return func(f *Float) { f.def = &v }
}

// FloatMinimum sets the inclusive lower bound.
func FloatMinimum(v float64) FloatOption {
	return func(f *Float) { f.min = &v }
}

// FloatMaximum sets the inclusive upper bound.
func FloatMaximum(v float64) FloatOption {
	return func(f *Float) { f.max = &v }
}

// FloatOptional marks the requirement as satisfiable without a value.
func FloatOptional() FloatOption {
	return func(f *Float) { f.optional = true }
}

// NewFloat builds a float requirement, rejecting inverted bounds and defaults
// outside the bounds.
func NewFloat(help string, opts ...FloatOption) (*Float, error) {
	if help == "" {
		return nil, &ConfigurationError{Reason: "help text is required"}
	}

	f := &Float{help: help}
	for _, opt := range opts {
		opt(f)
	}

	if f.min != nil && f.max != nil && *f.min > *f.max {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("minimum %g exceeds maximum %g", *f.min, *f.max)}
	}

	if f.def != nil {
		if reason, ok := f.conforms(*f.def); !ok {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("default %g %s", *f.def, reason)}
		}
	}

	return f, nil
}

func (f *Float) Help() string     { return f.help }
func (f *Float) TypeName() string { return TypeFloat }
func (f *Float) IsOptional() bool { return f.optional }
func (f *Float) HasDefault() bool { return f.def != nil }

func (f *Float) Default() any {
	if f.def == nil {
		return nil
	}

	return *f.def
}

// Minimum returns the lower bound and whether one is set.
func (f *Float) Minimum() (float64, bool) {
	if f.min == nil {
		return 0, false
	}

	return *f.min, true
}

// Maximum returns the upper bound and whether one is set.
func (f *Float) Maximum() (float64, bool) {
	if f.max == nil {
		return 0, false
	}

	return *f.max, true
}

func (f *Float) Satisfied() bool { return f.value != nil || f.def != nil }

func (f *Float) Set(v any) error {
	val, ok := asFloat64(v)
	if !ok {
		return newValidationError("", "must be a number", v)
	}

	f.value = &val

	if reason, ok := f.conforms(val); !ok {
		return newValidationError("", reason, val)
	}

	return nil
}

func (f *Float) Parse(token string) error {
	val, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return newValidationError("", "must be a number", token)
	}

	return f.Set(val)
}

func (f *Float) Value() (any, error) {
	switch {
	case f.value != nil:
		return *f.value, nil
	case f.def != nil:
		return *f.def, nil
	case f.optional:
		return nil, nil
	default:
		return nil, newValidationError("", "required but no value bound and no default configured", nil)
	}
}

func (f *Float) Check() error {
	if verr := checkRequired(f.Satisfied(), f.optional); verr != nil {
		return verr
	}

	if f.value != nil {
		if reason, ok := f.conforms(*f.value); !ok {
			return newValidationError("", reason, *f.value)
		}
	}

	return nil
}

func (f *Float) Constraint() string {
	switch {
	case f.min != nil && f.max != nil:
		return fmt.Sprintf("between %g and %g", *f.min, *f.max)
	case f.min != nil:
		return fmt.Sprintf("at least %g", *f.min)
	case f.max != nil:
		return fmt.Sprintf("at most %g", *f.max)
	default:
		return ""
	}
}

func (f *Float) Schema() map[string]any {
	s := map[string]any{
		"type":        "number",
		"description": f.help,
	}

	if f.min != nil {
		s["minimum"] = *f.min
	}

	if f.max != nil {
		s["maximum"] = *f.max
	}

	if f.def != nil {
		s["default"] = *f.def
	}

	return s
}

func (f *Float) conforms(v float64) (string, bool) {
	if f.min != nil && v < *f.min {
		return fmt.Sprintf("must be at least %g", *f.min), false
	}

	if f.max != nil && v > *f.max {
		return fmt.Sprintf("must be at most %g", *f.max), false
	}

	return "", true
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	default:
		return 0, false
	}
}
