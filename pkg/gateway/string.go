package gateway

import (
	"fmt"
	"slices"
	"strings"
)

// String is a requirement for a text value, optionally restricted to an
// allowed set.
type String struct {
	help     string
	optional bool
	def      *string
	allowed  []string
	value    *string
}

// StringOption configures a String during construction.
type StringOption func(*String)

// StringDefault sets the default value.
func StringDefault(v string) StringOption {
	return func(s *String) { s.def = &v }
}

// StringAllowed restricts values to the given set. Passing no values is a
// configuration error.
func StringAllowed(values ...string) StringOption {
	return func(s *String) { s.allowed = values }
}

// StringOptional marks the requirement as satisfiable without a value.
func StringOptional() StringOption {
	return func(s *String) { s.optional = true }
}

// NewString builds a string requirement, rejecting an empty allowed set and
// defaults outside it.
func NewString(help string, opts ...StringOption) (*String, error) {
	if help == "" {
		return nil, &ConfigurationError{Reason: "help text is required"}
	}

	s := &String{help: help}
	for _, opt := range opts {
		opt(s)
	}

	if s.allowed != nil && len(s.allowed) == 0 {
		return nil, &ConfigurationError{Reason: "allowed set must not be empty"}
	}

	if s.def != nil {
		if reason, ok := s.conforms(*s.def); !ok {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("default %q %s", *s.def, reason)}
		}
	}

	return s, nil
}

func (s *String) Help() string     { return s.help }
func (s *String) TypeName() string { return TypeString }
func (s *String) IsOptional() bool { return s.optional }
func (s *String) HasDefault() bool { return s.def != nil }

func (s *String) Default() any {
	if s.def == nil {
		return nil
	}

	return *s.def
}

// Allowed returns the permitted values, or nil when unrestricted.
func (s *String) Allowed() []string {
	return slices.Clone(s.allowed)
}

func (s *String) Satisfied() bool { return s.value != nil || s.def != nil }

func (s *String) Set(v any) error {
	val, ok := v.(string)
	if !ok {
		return newValidationError("", "must be a string", v)
	}

	s.value = &val

	if reason, ok := s.conforms(val); !ok {
		return newValidationError("", reason, val)
	}

	return nil
}

func (s *String) Parse(token string) error {
	return s.Set(token)
}

func (s *String) Value() (any, error) {
	switch {
	case s.value != nil:
		return *s.value, nil
	case s.def != nil:
		return *s.def, nil
	case s.optional:
		return nil, nil
	default:
		return nil, newValidationError("", "required but no value bound and no default configured", nil)
	}
}

func (s *String) Check() error {
	if verr := checkRequired(s.Satisfied(), s.optional); verr != nil {
		return verr
	}

	if s.value != nil {
		if reason, ok := s.conforms(*s.value); !ok {
			return newValidationError("", reason, *s.value)
		}
	}

	return nil
}

func (s *String) Constraint() string {
	if len(s.allowed) == 0 {
		return ""
	}

	return fmt.Sprintf("one of %s", strings.Join(s.allowed, ", "))
}

func (s *String) Schema() map[string]any {
	sc := map[string]any{
		"type":        "string",
		"description": s.help,
	}

	if len(s.allowed) > 0 {
		sc["enum"] = slices.Clone(s.allowed)
	}

	if s.def != nil {
		sc["default"] = *s.def
	}

	return sc
}

func (s *String) conforms(v string) (string, bool) {
	if len(s.allowed) > 0 && !slices.Contains(s.allowed, v) {
		return fmt.Sprintf("must be one of %s", strings.Join(s.allowed, ", ")), false
	}

	return "", true
}
