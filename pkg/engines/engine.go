// Package engines defines the adapter contract between simulation protocols
// and the external packages that run them. An engine stages input files,
// writes the package's native configuration for a protocol and turns the
// package's log output into records.
package engines

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/simgate/simgate/pkg/process"
	"github.com/simgate/simgate/pkg/protocol"
)

// ErrUnsupportedProtocol is returned when an engine cannot run the requested
// protocol.
var ErrUnsupportedProtocol = errors.New("protocol not supported by engine")

// Input names the files an engine stages into its working directory.
type Input struct {
	// Coordinates holds the starting structure files. The first entry is
	// staged as the primary coordinate file.
	Coordinates []string
	// Topology describes connectivity and force-field assignment.
	Topology string
	// Parameters is an extra parameter file for engines that keep
	// force-field parameters separate from the topology.
	Parameters string
	// Restraints is a restraint definition file, required when the
	// protocol restrains atoms.
	Restraints string
}

// Engine adapts one external simulation package.
type Engine interface {
	// Name identifies the engine.
	Name() string

	// Binary is the executable the engine invokes.
	Binary() string

	// Prepare stages input files into the working directory of proc,
	// writes the engine configuration for proto and sets the process
	// arguments.
	Prepare(ctx context.Context, proc *process.Process, proto protocol.Protocol, input Input) error

	// UpdateRecords parses log output produced since the last call into
	// records.
	UpdateRecords(proc *process.Process, records *process.RecordSet) error

	// Artifacts returns the output files the run has produced so far.
	Artifacts(proc *process.Process) []string
}

// StageFile copies one input file into an engine working directory.
func StageFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open input file %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to stage input file %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to stage input file %s: %w", dst, err)
	}

	return nil
}

// Existing filters paths down to those present on disk.
func Existing(paths []string) []string {
	var out []string

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			out = append(out, path)
		}
	}

	return out
}
