// Package prompt is the interactive control surface: a line-oriented
// collector that walks the requirements in order, showing help, constraint
// and default for each, and re-prompting on invalid entries.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/simgate/simgate/pkg/gateway"
)

const defaultAttempts = 3

// Surface reads one value per requirement from an injected reader. An empty
// line keeps the default or skips an optional requirement. Collection blocks
// the calling goroutine until the operator finishes or input is exhausted.
type Surface struct {
	reader   *bufio.Reader
	writer   io.Writer
	attempts int
}

// New builds a prompt surface over r and w; nil falls back to stdin/stdout.
func New(r io.Reader, w io.Writer) *Surface {
	if r == nil {
		r = os.Stdin
	}

	if w == nil {
		w = os.Stdout
	}

	return &Surface{
		reader:   bufio.NewReader(r),
		writer:   w,
		attempts: defaultAttempts,
	}
}

// Collect implements gateway.ControlSurface.
func (s *Surface) Collect(ctx context.Context, bindings []gateway.Binding) error {
	for _, b := range bindings {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := s.collectOne(b); err != nil {
			return err
		}
	}

	return nil
}

func (s *Surface) collectOne(b gateway.Binding) error {
	label := fmt.Sprintf("%s: %s", b.Name, b.Requirement.Help())
	if c := b.Requirement.Constraint(); c != "" {
		label = fmt.Sprintf("%s (%s)", label, c)
	}

	if b.Requirement.HasDefault() {
		label = fmt.Sprintf("%s [default %v]", label, b.Requirement.Default())
	} else if b.Requirement.IsOptional() {
		label += " [optional]"
	}

	var lastErr error

	for attempt := 0; attempt < s.attempts; attempt++ {
		fmt.Fprintln(s.writer, label)
		fmt.Fprint(s.writer, "> ")

		line, err := s.reader.ReadString('\n')
		line = strings.TrimSpace(line)

		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}

		// Empty line keeps the default or leaves the requirement unset;
		// exhausted input skips everything that remains.
		if line == "" {
			return nil
		}

		parseErr := b.Requirement.Parse(line)
		if parseErr == nil {
			return nil
		}

		lastErr = parseErr

		fmt.Fprintf(s.writer, "invalid value: %s\n", parseErr)

		if err != nil {
			break
		}
	}

	if verr, ok := gateway.AsValidationError(lastErr); ok {
		named := make([]gateway.Violation, len(verr.Violations))

		for i, v := range verr.Violations {
			if v.Name == "" {
				v.Name = b.Name
			}

			named[i] = v
		}

		return &gateway.ValidationError{Violations: named}
	}

	return lastErr
}
