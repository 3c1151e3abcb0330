// Package namd adapts the NAMD molecular dynamics package. It generates
// NAMD configuration files from protocols and extracts the ETITLE/ENERGY
// records NAMD writes to standard output.
package namd

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/simgate/simgate/pkg/engines"
	"github.com/simgate/simgate/pkg/log"
	"github.com/simgate/simgate/pkg/process"
	"github.com/simgate/simgate/pkg/protocol"
)

const (
	// Name identifies the engine.
	Name = "namd"
	// DefaultBinary is the NAMD executable.
	DefaultBinary = "namd2"
)

// defaultTemperature initialises velocities for protocols that do not carry
// a temperature of their own, in Kelvin.
const defaultTemperature = 300.0

// Engine drives one NAMD run. It is not safe for concurrent use.
type Engine struct {
	exe    string
	logger *slog.Logger

	// offset tracks how far into the captured stdout records have been
	// parsed; titles holds the most recent ETITLE row and timing the most
	// recent TIMING row.
	offset int64
	titles []string
	timing []string
}

// New returns a NAMD engine invoking exe, defaulting to namd2.
func New(exe string) *Engine {
	if exe == "" {
		exe = DefaultBinary
	}

	return &Engine{
		exe:    exe,
		logger: log.WithModule("engine").With("engine", Name),
	}
}

// Name returns the engine name.
func (e *Engine) Name() string {
	return Name
}

// Binary returns the executable the engine invokes.
func (e *Engine) Binary() string {
	return e.exe
}

// Prepare stages the coordinate, topology and parameter files, writes the
// NAMD configuration and sets the process arguments.
func (e *Engine) Prepare(ctx context.Context, proc *process.Process, proto protocol.Protocol, input engines.Input) error {
	if len(input.Coordinates) == 0 {
		return fmt.Errorf("%s requires a coordinate file", Name)
	}

	if input.Topology == "" {
		return fmt.Errorf("%s requires a topology file", Name)
	}

	name := proc.Name()

	if err := engines.StageFile(input.Coordinates[0], proc.InputPath(name+".pdb")); err != nil {
		return err
	}

	if err := engines.StageFile(input.Topology, proc.InputPath(name+".psf")); err != nil {
		return err
	}

	if input.Parameters != "" {
		if err := engines.StageFile(input.Parameters, proc.InputPath(name+".params")); err != nil {
			return err
		}
	}

	if restrained(proto) {
		if input.Restraints == "" {
			return fmt.Errorf("%s requires a restraint file for a restrained protocol", Name)
		}

		if err := engines.StageFile(input.Restraints, proc.InputPath(name+".restrained")); err != nil {
			return err
		}
	}

	config, err := Config(proto, name, input.Parameters != "")
	if err != nil {
		return err
	}

	if err := proc.WriteInput(name+".namd", strings.Join(config, "\n")+"\n"); err != nil {
		return err
	}

	proc.Args().Set(name+".namd", true)

	return nil
}

// Artifacts returns the run outputs NAMD has produced so far.
func (e *Engine) Artifacts(proc *process.Process) []string {
	name := proc.Name()

	return engines.Existing([]string{
		proc.InputPath(name + "_out.coor"),
		proc.InputPath(name + "_out.vel"),
		proc.InputPath(name + "_out.xsc"),
		proc.InputPath(name + "_out.dcd"),
		proc.InputPath(name + "_out.restart.coor"),
		proc.InputPath(name + "_out.restart.vel"),
		proc.StdoutPath(),
	})
}

func restrained(proto protocol.Protocol) bool {
	p, ok := proto.(*protocol.Equilibration)

	return ok && p.Restraint != protocol.RestraintNone
}

// Config generates the NAMD configuration lines for proto. Input files are
// referenced by the process name, the way Prepare stages them.
func Config(proto protocol.Protocol, name string, charmmParams bool) ([]string, error) {
	c := newConfig(name, charmmParams)

	switch p := proto.(type) {
	case *protocol.Minimisation:
		c.add("temperature", "%.2f", defaultTemperature)
		c.add("minimize", "%d", p.Steps)
	case *protocol.Equilibration:
		c.equilibration(p)
	case *protocol.Production:
		c.production(p)
	default:
		return nil, fmt.Errorf("%w: %s %s", engines.ErrUnsupportedProtocol, Name, proto.Name())
	}

	return c.lines, nil
}

// config accumulates column-aligned NAMD configuration lines.
type config struct {
	name  string
	lines []string
}

func (c *config) add(key, format string, args ...any) {
	c.lines = append(c.lines, fmt.Sprintf("%-21s %s", key, fmt.Sprintf(format, args...)))
}

func newConfig(name string, charmmParams bool) *config {
	c := &config{name: name}

	c.add("structure", "%s.psf", name)
	c.add("coordinates", "%s.pdb", name)

	if charmmParams {
		c.add("paraTypeCharmm", "on")
		c.add("parameters", "%s.params", name)
	}

	c.add("exclude", "scaled1-4")
	c.add("cutoff", "12.")
	c.add("pairlistdist", "14.")
	c.add("switching", "on")
	c.add("switchdist", "10.")

	c.add("outputName", "%s_out", name)
	c.add("binaryOutput", "no")
	c.add("binaryRestart", "no")
	c.add("dcdunitcell", "no")

	return c
}

func (c *config) equilibration(p *protocol.Equilibration) {
	c.add("restartfreq", "%d", p.RestartInterval)
	c.add("xstFreq", "%d", p.RestartInterval)
	c.add("outputEnergies", "%d", p.ReportInterval)
	c.add("outputTiming", "1000")

	c.add("set temperature", "%.2f", p.EndTemperature)
	c.add("temperature", "$temperature")

	c.integrator(p.Timestep)
	c.thermostat()

	if p.ConstantPressure() {
		c.barostat(*p.Pressure)
	}

	if p.Restraint != protocol.RestraintNone {
		c.add("fixedAtoms", "yes")
		c.add("fixedAtomsFile", "%s.restrained", c.name)
	}

	steps := p.Steps()

	// Heating and cooling runs reassign the temperature in unit increments
	// spread evenly over the trajectory.
	if !p.ConstantTemperature() {
		span := math.Abs(p.EndTemperature - p.StartTemperature)

		freq := int64(math.Floor(float64(steps) / span))
		if freq < 1 {
			freq = 1
		}

		c.add("reassignFreq", "%d", freq)
		c.add("reassignTemp", "%.2f", p.StartTemperature)
		c.add("reassignIncr", "1.")
		c.add("reassignHold", "%.2f", p.EndTemperature)
	}

	c.add("run", "%d", steps)
}

func (c *config) production(p *protocol.Production) {
	c.add("restartfreq", "%d", p.RestartInterval)
	c.add("xstFreq", "%d", p.RestartInterval)
	c.add("outputEnergies", "%d", p.ReportInterval)
	c.add("outputTiming", "1000")

	c.add("set temperature", "%.2f", p.Temperature)
	c.add("temperature", "$temperature")

	c.integrator(p.Timestep)
	c.thermostat()

	if p.ConstantPressure() {
		c.barostat(*p.Pressure)
	}

	if p.FirstStep > 0 {
		c.add("firsttimestep", "%d", p.FirstStep)
	}

	c.add("run", "%d", p.Steps())
}

func (c *config) integrator(timestep float64) {
	c.add("timestep", "%.2f", timestep)
	c.add("rigidBonds", "all")
	c.add("nonbondedFreq", "1")
	c.add("fullElectFrequency", "2")
}

func (c *config) thermostat() {
	c.add("langevin", "on")
	c.add("langevinDamping", "1.")
	c.add("langevinTemp", "$temperature")
	c.add("langevinHydrogen", "no")
}

// barostat converts a pressure in atmospheres to the Langevin piston lines,
// the piston target is in bar.
func (c *config) barostat(atm float64) {
	c.add("langevinPiston", "on")
	c.add("langevinPistonTarget", "%.5f", atm*1.01325)
	c.add("langevinPistonPeriod", "100.")
	c.add("langevinPistonDecay", "50.")
	c.add("langevinPistonTemp", "$temperature")
	c.add("useGroupPressure", "yes")
	c.add("useFlexibleCell", "no")
	c.add("useConstantArea", "no")
}
