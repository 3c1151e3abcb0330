// Package surface provides control-surface implementations that collect
// requirement values from operators and scripts: pre-decoded documents here,
// command-line flags in cliflag, interactive prompts in prompt.
package surface

import (
	"context"
	"slices"

	"github.com/simgate/simgate/pkg/gateway"
)

// Document binds pre-decoded values (typically an unmarshalled JSON object)
// onto requirements by name. Keys that match no requirement are reported as
// violations rather than ignored, so a typo in a submitted document cannot
// silently drop an input.
type Document map[string]any

// Collect implements gateway.ControlSurface. All problems are gathered into
// one aggregate: every binding failure plus every unrecognised key.
func (d Document) Collect(_ context.Context, bindings []gateway.Binding) error {
	var violations []gateway.Violation

	known := make(map[string]struct{}, len(bindings))

	for _, b := range bindings {
		known[b.Name] = struct{}{}

		v, present := d[b.Name]
		if !present {
			continue
		}

		err := b.Requirement.Set(v)
		if err == nil {
			continue
		}

		if verr, ok := gateway.AsValidationError(err); ok {
			for _, violation := range verr.Violations {
				if violation.Name == "" {
					violation.Name = b.Name
				}

				violations = append(violations, violation)
			}

			continue
		}

		violations = append(violations, gateway.Violation{Name: b.Name, Reason: err.Error()})
	}

	unknown := make([]string, 0)

	for key := range d {
		if _, ok := known[key]; !ok {
			unknown = append(unknown, key)
		}
	}

	slices.Sort(unknown)

	for _, key := range unknown {
		violations = append(violations, gateway.Violation{Name: key, Reason: "not a recognised input"})
	}

	if len(violations) > 0 {
		return &gateway.ValidationError{Violations: violations}
	}

	return nil
}
