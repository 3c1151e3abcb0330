package gateway

import (
	"slices"
	"strings"
)

// File is a requirement for a single path-like location string. Requirements
// are pure descriptors, so only non-emptiness is checked here; existence and
// readability are the concern of whoever consumes the path.
type File struct {
	help     string
	optional bool
	def      *string
	value    *string
}

// FileOption configures a File during construction.
type FileOption func(*File)

// FileDefault sets the default path.
func FileDefault(path string) FileOption {
	return func(f *File) { f.def = &path }
}

// FileOptional marks the requirement as satisfiable without a value.
func FileOptional() FileOption {
	return func(f *File) { f.optional = true }
}

// NewFile builds a file requirement.
func NewFile(help string, opts ...FileOption) (*File, error) {
	if help == "" {
		return nil, &ConfigurationError{Reason: "help text is required"}
	}

	f := &File{help: help}
	for _, opt := range opts {
		opt(f)
	}

	if f.def != nil && *f.def == "" {
		return nil, &ConfigurationError{Reason: "default path must not be empty"}
	}

	return f, nil
}

func (f *File) Help() string     { return f.help }
func (f *File) TypeName() string { return TypeFile }
func (f *File) IsOptional() bool { return f.optional }
func (f *File) HasDefault() bool { return f.def != nil }

func (f *File) Default() any {
	if f.def == nil {
		return nil
	}

	return *f.def
}

func (f *File) Satisfied() bool { return f.value != nil || f.def != nil }

func (f *File) Set(v any) error {
	val, ok := v.(string)
	if !ok {
		return newValidationError("", "must be a path string", v)
	}

	if val == "" {
		return newValidationError("", "path must not be empty", nil)
	}

	f.value = &val

	return nil
}

func (f *File) Parse(token string) error {
	return f.Set(token)
}

func (f *File) Value() (any, error) {
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

func (f *File) Check() error {
	if verr := checkRequired(f.Satisfied(), f.optional); verr != nil {
		return verr
	}

	return nil
}

func (f *File) Constraint() string { return "" }

func (f *File) Schema() map[string]any {
	s := map[string]any{
		"type":        "string",
		"description": f.help,
	}
	if f.def != nil {
		s["default"] = *f.def
	}

	return s
}

// FileSet is a requirement for one or more path-like location strings.
type FileSet struct {
	help     string
	optional bool
	def      []string
	value    []string
}

// FileSetOption configures a FileSet during construction.
type FileSetOption func(*FileSet)

// FileSetDefault sets the default paths. Passing no paths is a configuration
// error.
func FileSetDefault(paths ...string) FileSetOption {
	return func(f *FileSet) { f.def = paths }
}

// FileSetOptional marks the requirement as satisfiable without a value.
func FileSetOptional() FileSetOption {
	return func(f *FileSet) { f.optional = true }
}

// NewFileSet builds a file-set requirement.
func NewFileSet(help string, opts ...FileSetOption) (*FileSet, error) {
	if help == "" {
		return nil, &ConfigurationError{Reason: "help text is required"}
	}

	f := &FileSet{help: help}
	for _, opt := range opts {
		opt(f)
	}

	if f.def != nil {
		if reason, ok := conformPaths(f.def); !ok {
			return nil, &ConfigurationError{Reason: "default " + reason}
		}
	}

	return f, nil
}

func (f *FileSet) Help() string     { return f.help }
func (f *FileSet) TypeName() string { return TypeFileSet }
func (f *FileSet) IsOptional() bool { return f.optional }
func (f *FileSet) HasDefault() bool { return f.def != nil }

func (f *FileSet) Default() any {
	if f.def == nil {
		return nil
	}

	return slices.Clone(f.def)
}

func (f *FileSet) Satisfied() bool { return f.value != nil || f.def != nil }

// Set binds a path list. Accepted kinds: []string, []any holding strings, or
// a single string (one-element set).
func (f *FileSet) Set(v any) error {
	paths, ok := asPathList(v)
	if !ok {
		return newValidationError("", "must be a list of path strings", v)
	}

	f.value = paths

	if reason, ok := conformPaths(paths); !ok {
		return newValidationError("", reason, paths)
	}

	return nil
}

// Parse accumulates paths across calls so a repeated flag and a
// comma-delimited list both work, in any combination.
func (f *FileSet) Parse(token string) error {
	var paths []string

	for _, part := range strings.Split(token, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			paths = append(paths, part)
		}
	}

	if len(paths) == 0 {
		return newValidationError("", "path list must not be empty", token)
	}

	return f.Set(append(slices.Clone(f.value), paths...))
}

func (f *FileSet) Value() (any, error) {
	switch {
	case f.value != nil:
		return slices.Clone(f.value), nil
	case f.def != nil:
		return slices.Clone(f.def), nil
	case f.optional:
		return nil, nil
	default:
		return nil, newValidationError("", "required but no value bound and no default configured", nil)
	}
}

func (f *FileSet) Check() error {
	if verr := checkRequired(f.Satisfied(), f.optional); verr != nil {
		return verr
	}

	if f.value != nil {
		if reason, ok := conformPaths(f.value); !ok {
			return newValidationError("", reason, f.value)
		}
	}

	return nil
}

func (f *FileSet) Constraint() string { return "one or more paths" }

func (f *FileSet) Schema() map[string]any {
	s := map[string]any{
		"type":        "array",
		"description": f.help,
		"items":       map[string]any{"type": "string"},
		"minItems":    1,
	}
	if f.def != nil {
		s["default"] = slices.Clone(f.def)
	}

	return s
}

func conformPaths(paths []string) (string, bool) {
	if len(paths) == 0 {
		return "path list must not be empty", false
	}

	for _, p := range paths {
		if p == "" {
			return "path list must not contain empty entries", false
		}
	}

	return "", true
}

func asPathList(v any) ([]string, bool) {
	switch vs := v.(type) {
	case []string:
		return slices.Clone(vs), true
	case string:
		return []string{vs}, true
	case []any:
		paths := make([]string, 0, len(vs))

		for _, item := range vs {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}

			paths = append(paths, s)
		}

		return paths, true
	default:
		return nil, false
	}
}
