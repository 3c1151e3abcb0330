// Package cliflag is the command-line control surface: one flag per
// requirement, parsed and bound in a single pass.
package cliflag

import (
	"context"
	"fmt"

	"github.com/simgate/simgate/pkg/gateway"
	cli "github.com/urfave/cli/v3"
)

// Surface parses an argument vector against flags derived from the
// requirements it is asked to collect. Boolean requirements become presence
// flags, file sets accept comma-delimited and repeated flags, everything else
// takes a single value token.
type Surface struct {
	args []string
}

// New builds a surface over the raw arguments following the node selector,
// e.g. everything after "run minimisation".
func New(args []string) *Surface {
	return &Surface{args: args}
}

// Collect implements gateway.ControlSurface.
func (s *Surface) Collect(ctx context.Context, bindings []gateway.Binding) error {
	cmd := &cli.Command{
		Name:  "inputs",
		Usage: "Bind node input values",
		Flags: Flags(bindings),
		Action: func(_ context.Context, command *cli.Command) error {
			return bind(command, bindings)
		},
	}

	return cmd.Run(ctx, append([]string{"inputs"}, s.args...))
}

// Flags derives one cli flag per binding, preserving binding order. Defaults
// and constraints surface in the usage text so --help documents the node.
func Flags(bindings []gateway.Binding) []cli.Flag {
	flags := make([]cli.Flag, 0, len(bindings))

	for _, b := range bindings {
		flags = append(flags, flagFor(b))
	}

	return flags
}

func flagFor(b gateway.Binding) cli.Flag {
	usage := b.Requirement.Help()
	if c := b.Requirement.Constraint(); c != "" {
		usage = fmt.Sprintf("%s (%s)", usage, c)
	}

	switch b.Requirement.TypeName() {
	case gateway.TypeBoolean:
		flag := &cli.BoolFlag{Name: b.Name, Usage: usage}
		if def, ok := b.Requirement.Default().(bool); ok {
			flag.Value = def
		}

		return flag
	case gateway.TypeFileSet:
		return &cli.StringSliceFlag{Name: b.Name, Usage: usage}
	default:
		flag := &cli.StringFlag{Name: b.Name, Usage: usage}
		if b.Requirement.HasDefault() {
			flag.Value = fmt.Sprint(b.Requirement.Default())
		}

		return flag
	}
}

// bind copies explicitly-set flag values onto their requirements. Unset flags
// are skipped so requirement defaults stay in charge. Violations are
// aggregated and keyed by requirement name.
func bind(command *cli.Command, bindings []gateway.Binding) error {
	var violations []gateway.Violation

	for _, b := range bindings {
		if !command.IsSet(b.Name) {
			continue
		}

		var err error

		switch b.Requirement.TypeName() {
		case gateway.TypeBoolean:
			err = b.Requirement.Set(command.Bool(b.Name))
		case gateway.TypeFileSet:
			err = b.Requirement.Set(command.StringSlice(b.Name))
		default:
			err = b.Requirement.Parse(command.String(b.Name))
		}

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

	if len(violations) > 0 {
		return &gateway.ValidationError{Violations: violations}
	}

	return nil
}
