package gateway

import "strconv"

// Boolean is a requirement for a true/false value.
type Boolean struct {
	help     string
	optional bool
	def      *bool
	value    *bool
}

// BooleanOption configures a Boolean during construction.
type BooleanOption func(*Boolean)

// BooleanDefault sets the default value.
func BooleanDefault(v bool) BooleanOption {
	return func(b *Boolean) { b.def = &v }
}

// BooleanOptional marks the requirement as satisfiable without a value.
func BooleanOptional() BooleanOption {
	return func(b *Boolean) { b.optional = true }
}

// NewBoolean builds a boolean requirement.
func NewBoolean(help string, opts ...BooleanOption) (*Boolean, error) {
	if help == "" {
		return nil, &ConfigurationError{Reason: "help text is required"}
	}

	b := &Boolean{help: help}
	for _, opt := range opts {
		opt(b)
	}

	return b, nil
}

func (b *Boolean) Help() string     { return b.help }
func (b *Boolean) TypeName() string { return TypeBoolean }
func (b *Boolean) IsOptional() bool { return b.optional }
func (b *Boolean) HasDefault() bool { return b.def != nil }

func (b *Boolean) Default() any {
	if b.def == nil {
		return nil
	}

	return *b.def
}

func (b *Boolean) Satisfied() bool { return b.value != nil || b.def != nil }

func (b *Boolean) Set(v any) error {
	val, ok := v.(bool)
	if !ok {
		return newValidationError("", "must be a boolean", v)
	}

	b.value = &val

	return nil
}

func (b *Boolean) Parse(token string) error {
	val, err := strconv.ParseBool(token)
	if err != nil {
		return newValidationError("", "must be a boolean", token)
	}

	return b.Set(val)
}

func (b *Boolean) Value() (any, error) {
	switch {
	case b.value != nil:
		return *b.value, nil
	case b.def != nil:
		return *b.def, nil
	case b.optional:
		return nil, nil
	default:
		return nil, newValidationError("", "required but no value bound and no default configured", nil)
	}
}

func (b *Boolean) Check() error {
	if verr := checkRequired(b.Satisfied(), b.optional); verr != nil {
		return verr
	}

	return nil
}

func (b *Boolean) Constraint() string { return "" }

func (b *Boolean) Schema() map[string]any {
	s := map[string]any{
		"type":        "boolean",
		"description": b.help,
	}
	if b.def != nil {
		s["default"] = *b.def
	}

	return s
}
