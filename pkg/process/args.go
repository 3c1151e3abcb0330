package process

import (
	"fmt"
	"slices"
	"strings"
)

// Args is an insertion-ordered command-line argument dictionary. Keys carry
// their own prefix ("-v", "-deffnm"); boolean true renders as a bare flag,
// boolean false is omitted, anything else renders as "key value". Updating an
// existing key keeps its position.
type Args struct {
	keys   []string
	values map[string]any
}

// NewArgs returns an empty argument dictionary.
func NewArgs() *Args {
	return &Args{values: make(map[string]any)}
}

// Set inserts or updates one argument.
func (a *Args) Set(key string, value any) {
	if _, exists := a.values[key]; !exists {
		a.keys = append(a.keys, key)
	}

	a.values[key] = value
}

// Get returns the value for key and whether it is present.
func (a *Args) Get(key string) (any, bool) {
	v, ok := a.values[key]

	return v, ok
}

// Delete removes one argument.
func (a *Args) Delete(key string) {
	if _, exists := a.values[key]; !exists {
		return
	}

	delete(a.values, key)

	idx := slices.Index(a.keys, key)
	a.keys = slices.Delete(a.keys, idx, idx+1)
}

// Clear removes every argument.
func (a *Args) Clear() {
	a.keys = nil
	a.values = make(map[string]any)
}

// Keys returns the argument keys in insertion order.
func (a *Args) Keys() []string {
	return slices.Clone(a.keys)
}

// Len returns the number of arguments.
func (a *Args) Len() int {
	return len(a.keys)
}

// Strings renders the dictionary as an argument vector.
func (a *Args) Strings() []string {
	argv := make([]string, 0, len(a.keys)*2)

	for _, key := range a.keys {
		switch v := a.values[key].(type) {
		case bool:
			if v {
				argv = append(argv, key)
			}
		default:
			argv = append(argv, key, fmt.Sprint(v))
		}
	}

	return argv
}

// String renders the dictionary as a single command-line fragment.
func (a *Args) String() string {
	return strings.Join(a.Strings(), " ")
}
