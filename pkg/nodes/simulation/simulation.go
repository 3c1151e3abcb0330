// Package simulation holds the execution glue shared by the simulation node
// types: requirement surfaces for engine selection and input staging, and
// the poll loop that drives an engine process while harvesting its records.
package simulation

import (
	"context"
	"fmt"
	"time"

	"github.com/simgate/simgate/pkg/engines"
	"github.com/simgate/simgate/pkg/engines/gromacs"
	"github.com/simgate/simgate/pkg/engines/namd"
	"github.com/simgate/simgate/pkg/gateway"
	"github.com/simgate/simgate/pkg/log"
	"github.com/simgate/simgate/pkg/process"
	"github.com/simgate/simgate/pkg/protocol"
)

// DefaultPollInterval is how often a running engine's log is re-parsed.
const DefaultPollInterval = time.Second

// AddFileInputs registers the staging requirements every simulation node
// shares. Engine names the packages the node may run on.
func AddFileInputs(node *gateway.Node, engineNames ...string) error {
	coordinates, err := gateway.NewFileSet("starting coordinate files")
	if err != nil {
		return err
	}

	if err := node.AddInput("coordinates", coordinates); err != nil {
		return err
	}

	topology, err := gateway.NewFile("topology describing connectivity and force-field assignment")
	if err != nil {
		return err
	}

	if err := node.AddInput("topology", topology); err != nil {
		return err
	}

	parameters, err := gateway.NewFile("separate force-field parameter file", gateway.FileOptional())
	if err != nil {
		return err
	}

	if err := node.AddInput("parameters", parameters); err != nil {
		return err
	}

	restraints, err := gateway.NewFile("restraint definition file", gateway.FileOptional())
	if err != nil {
		return err
	}

	if err := node.AddInput("restraints", restraints); err != nil {
		return err
	}

	engine, err := gateway.NewString("simulation package to run",
		gateway.StringDefault(engineNames[0]),
		gateway.StringAllowed(engineNames...))
	if err != nil {
		return err
	}

	if err := node.AddInput("engine", engine); err != nil {
		return err
	}

	exe, err := gateway.NewString("path to the engine executable", gateway.StringOptional())
	if err != nil {
		return err
	}

	return node.AddInput("exe", exe)
}

// AddRunOutputs registers the outputs every simulation node produces.
func AddRunOutputs(node *gateway.Node) error {
	artifacts, err := gateway.NewFileSet("files the run produced", gateway.FileSetOptional())
	if err != nil {
		return err
	}

	if err := node.AddOutput("artifacts", artifacts); err != nil {
		return err
	}

	finalStep, err := gateway.NewInteger("last integration step the engine reported",
		gateway.IntegerOptional())
	if err != nil {
		return err
	}

	return node.AddOutput("final_step", finalStep)
}

// StringInput returns the bound string for name, or empty when unset.
func StringInput(node *gateway.Node, name string) string {
	v, err := node.Input(name)
	if err != nil || v == nil {
		return ""
	}

	s, _ := v.(string)

	return s
}

// PathsInput returns the bound path list for name.
func PathsInput(node *gateway.Node, name string) []string {
	v, err := node.Input(name)
	if err != nil || v == nil {
		return nil
	}

	paths, _ := v.([]string)

	return paths
}

// EngineFor builds the engine selected by the node's inputs.
func EngineFor(node *gateway.Node) (engines.Engine, error) {
	exe := StringInput(node, "exe")

	switch name := StringInput(node, "engine"); name {
	case gromacs.Name:
		return gromacs.New(exe), nil
	case namd.Name:
		return namd.New(exe), nil
	default:
		return nil, fmt.Errorf("unknown engine '%s'", name)
	}
}

// Run drives one engine process to completion: stage inputs, start the
// binary, harvest records until it exits and publish the run outputs back
// onto the node.
func Run(ctx context.Context, node *gateway.Node, proto protocol.Protocol, workDir string) (*process.RecordSet, error) {
	records := process.NewRecordSet()

	if err := proto.Validate(); err != nil {
		return records, err
	}

	eng, err := EngineFor(node)
	if err != nil {
		return records, err
	}

	proc, err := process.New(process.Config{
		Name:    eng.Name(),
		Exe:     eng.Binary(),
		WorkDir: workDir,
	})
	if err != nil {
		return records, err
	}

	input := engines.Input{
		Coordinates: PathsInput(node, "coordinates"),
		Topology:    StringInput(node, "topology"),
		Parameters:  StringInput(node, "parameters"),
		Restraints:  StringInput(node, "restraints"),
	}

	if err := eng.Prepare(ctx, proc, proto, input); err != nil {
		return records, err
	}

	if err := proc.Start(ctx); err != nil {
		return records, err
	}

	if err := watch(ctx, eng, proc, records); err != nil {
		return records, err
	}

	if artifacts := eng.Artifacts(proc); len(artifacts) > 0 {
		if err := node.SetOutput("artifacts", artifacts); err != nil {
			return records, err
		}
	}

	if step, ok := finalStep(records); ok {
		if err := node.SetOutput("final_step", step); err != nil {
			return records, err
		}
	}

	return records, nil
}

// watch refreshes records while the engine runs and reports how it exited.
// The logger comes from the context so engine warnings carry the caller's run
// attributes.
func watch(ctx context.Context, eng engines.Engine, proc *process.Process, records *process.RecordSet) error {
	logger := log.FromContext(ctx).With("engine", eng.Name())

	ticker := time.NewTicker(DefaultPollInterval)
	defer ticker.Stop()

	done := make(chan error, 1)
	go func() { done <- proc.Wait() }()

	for {
		select {
		case <-ctx.Done():
			if err := proc.Kill(); err != nil {
				logger.Warn("Failed to kill engine process", "error", err)
			}

			<-done

			return fmt.Errorf("run cancelled: %w", ctx.Err())

		case err := <-done:
			if uerr := eng.UpdateRecords(proc, records); uerr != nil {
				logger.Warn("Failed to parse engine output", "error", uerr)
			}

			if err != nil {
				if code, ok := proc.ExitCode(); ok {
					return fmt.Errorf("%s exited with code %d: %w", eng.Name(), code, err)
				}

				return fmt.Errorf("%s failed: %w", eng.Name(), err)
			}

			return nil

		case <-ticker.C:
			if err := eng.UpdateRecords(proc, records); err != nil {
				logger.Warn("Failed to parse engine output", "error", err)
			}
		}
	}
}

// finalStep extracts the last reported integration step. GROMACS logs it as
// STEP, NAMD as TS.
func finalStep(records *process.RecordSet) (int64, bool) {
	for _, key := range []string{"STEP", "TS"} {
		if step, ok := records.LatestInt(key); ok {
			return step, true
		}
	}

	return 0, false
}
