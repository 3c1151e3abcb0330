// Package gromacs adapts the GROMACS molecular dynamics package. It
// generates .mdp configuration files from protocols, compiles the binary run
// input with grompp and extracts the thermodynamic records mdrun writes to
// its log file.
package gromacs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/simgate/simgate/pkg/engines"
	"github.com/simgate/simgate/pkg/log"
	"github.com/simgate/simgate/pkg/process"
	"github.com/simgate/simgate/pkg/protocol"
)

const (
	// Name identifies the engine.
	Name = "gromacs"
	// DefaultBinary is the gmx wrapper binary.
	DefaultBinary = "gmx"
)

// Engine drives one GROMACS run. It is not safe for concurrent use.
type Engine struct {
	exe    string
	logger *slog.Logger

	// offset tracks how far into the mdrun log records have been parsed.
	offset int64
}

// New returns a GROMACS engine invoking exe, defaulting to the gmx wrapper.
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

// Prepare stages the coordinate and topology files, writes the .mdp
// configuration, compiles the portable binary run input with grompp and sets
// the mdrun arguments on proc.
func (e *Engine) Prepare(ctx context.Context, proc *process.Process, proto protocol.Protocol, input engines.Input) error {
	if len(input.Coordinates) == 0 {
		return fmt.Errorf("%s requires a coordinate file", Name)
	}

	if input.Topology == "" {
		return fmt.Errorf("%s requires a topology file", Name)
	}

	name := proc.Name()

	if err := engines.StageFile(input.Coordinates[0], proc.InputPath(name+".gro")); err != nil {
		return err
	}

	if err := engines.StageFile(input.Topology, proc.InputPath(name+".top")); err != nil {
		return err
	}

	config, err := Config(proto)
	if err != nil {
		return err
	}

	if err := proc.WriteInput(name+".mdp", strings.Join(config, "\n")+"\n"); err != nil {
		return err
	}

	if err := e.compile(ctx, proc); err != nil {
		return err
	}

	proc.Args().Set("mdrun", true)
	proc.Args().Set("-v", true)
	proc.Args().Set("-deffnm", name)

	return nil
}

// compile runs grompp in the working directory to produce the .tpr binary
// run input.
func (e *Engine) compile(ctx context.Context, proc *process.Process) error {
	name := proc.Name()

	grompp, err := process.New(process.Config{
		Name:    name + "-grompp",
		Exe:     e.exe,
		WorkDir: proc.WorkDir(),
		Logger:  e.logger,
	})
	if err != nil {
		return err
	}

	grompp.Args().Set("grompp", true)
	grompp.Args().Set("-f", name+".mdp")
	grompp.Args().Set("-po", name+".out.mdp")
	grompp.Args().Set("-c", name+".gro")
	grompp.Args().Set("-p", name+".top")
	grompp.Args().Set("-r", name+".gro")
	grompp.Args().Set("-o", name+".tpr")

	if err := grompp.Start(ctx); err != nil {
		return err
	}

	if err := grompp.Wait(); err != nil {
		return fmt.Errorf("failed to generate binary run input: %w", err)
	}

	return nil
}

// Artifacts returns the run outputs mdrun has produced so far.
func (e *Engine) Artifacts(proc *process.Process) []string {
	name := proc.Name()

	return engines.Existing([]string{
		proc.InputPath(name + ".gro"),
		proc.InputPath(name + ".log"),
		proc.InputPath(name + ".edr"),
		proc.InputPath(name + ".trr"),
		proc.InputPath(name + ".xtc"),
		proc.InputPath(name + ".cpt"),
	})
}

// Config generates the .mdp configuration lines for proto.
func Config(proto protocol.Protocol) ([]string, error) {
	switch p := proto.(type) {
	case *protocol.Minimisation:
		return minimisationConfig(p), nil
	case *protocol.Equilibration:
		return equilibrationConfig(p), nil
	case *protocol.Production:
		return productionConfig(p), nil
	case *protocol.FreeEnergy:
		return freeEnergyConfig(p)
	default:
		return nil, fmt.Errorf("%w: %s %s", engines.ErrUnsupportedProtocol, Name, proto.Name())
	}
}

func minimisationConfig(p *protocol.Minimisation) []string {
	return []string{
		"integrator = steep",
		fmt.Sprintf("nsteps = %d", p.Steps),
		fmt.Sprintf("nstxout = %d", p.Steps),
		"cutoff-scheme = Verlet",
		"ns-type = grid",
		"pbc = xyz",
		"coulombtype = PME",
		"DispCorr = EnerPres",
	}
}

func equilibrationConfig(p *protocol.Equilibration) []string {
	config := []string{
		"integrator = md",
		fmt.Sprintf("dt = %.4f", p.Timestep/1000),
		fmt.Sprintf("nsteps = %d", p.Steps()),
		fmt.Sprintf("nstlog = %d", p.ReportInterval),
		fmt.Sprintf("nstenergy = %d", p.ReportInterval),
		fmt.Sprintf("nstxout = %d", p.RestartInterval),
		"cutoff-scheme = Verlet",
		"ns-type = grid",
		"pbc = xyz",
		"coulombtype = PME",
		"DispCorr = EnerPres",
		"constraints = h-bonds",
		"tcoupl = v-rescale",
		"tc-grps = system",
		"tau-t = 0.1",
		fmt.Sprintf("ref-t = %.2f", p.EndTemperature),
		"gen-vel = yes",
		fmt.Sprintf("gen-temp = %.2f", p.StartTemperature),
	}

	if !p.ConstantTemperature() {
		config = append(config,
			"annealing = single",
			"annealing-npoints = 2",
			fmt.Sprintf("annealing-time = 0 %.2f", p.Runtime*1000),
			fmt.Sprintf("annealing-temp = %.2f %.2f", p.StartTemperature, p.EndTemperature),
		)
	}

	if p.ConstantPressure() {
		config = append(config, pressureCoupling(*p.Pressure)...)
	}

	if p.Restraint != protocol.RestraintNone {
		config = append(config,
			"define = -DPOSRES",
			"refcoord-scaling = com",
		)
	}

	return config
}

func productionConfig(p *protocol.Production) []string {
	config := []string{
		"integrator = md",
		fmt.Sprintf("dt = %.4f", p.Timestep/1000),
		fmt.Sprintf("nsteps = %d", p.Steps()),
	}

	if p.FirstStep > 0 {
		config = append(config, fmt.Sprintf("init-step = %d", p.FirstStep))
	}

	config = append(config,
		fmt.Sprintf("nstlog = %d", p.ReportInterval),
		fmt.Sprintf("nstenergy = %d", p.ReportInterval),
		fmt.Sprintf("nstxout = %d", p.RestartInterval),
		"cutoff-scheme = Verlet",
		"ns-type = grid",
		"pbc = xyz",
		"coulombtype = PME",
		"DispCorr = EnerPres",
		"constraints = h-bonds",
		"tcoupl = v-rescale",
		"tc-grps = system",
		"tau-t = 0.1",
		fmt.Sprintf("ref-t = %.2f", p.Temperature),
	)

	if p.ConstantPressure() {
		config = append(config, pressureCoupling(*p.Pressure)...)
	}

	if p.Restart {
		config = append(config,
			"continuation = yes",
			"gen-vel = no",
		)
	} else {
		config = append(config, "gen-vel = yes")
	}

	return config
}

func freeEnergyConfig(p *protocol.FreeEnergy) ([]string, error) {
	windows := p.Windows()

	state := p.WindowIndex()
	if state < 0 {
		return nil, fmt.Errorf("lambda %.4f is not in the window schedule", p.Lambda)
	}

	lambdas := make([]string, len(windows))
	for i, w := range windows {
		lambdas[i] = fmt.Sprintf("%.5f", w)
	}

	coupling, err := couplingFor(p.Perturbation)
	if err != nil {
		return nil, err
	}

	config := []string{
		"integrator = md",
		fmt.Sprintf("dt = %.4f", p.Timestep/1000),
		fmt.Sprintf("nsteps = %d", p.Steps()),
		fmt.Sprintf("nstlog = %d", p.ReportInterval),
		fmt.Sprintf("nstenergy = %d", p.ReportInterval),
		fmt.Sprintf("nstxout = %d", p.RestartInterval),
		"cutoff-scheme = Verlet",
		"ns-type = grid",
		"pbc = xyz",
		"coulombtype = PME",
		"DispCorr = EnerPres",
		"constraints = h-bonds",
		"tcoupl = v-rescale",
		"tc-grps = system",
		"tau-t = 0.1",
		fmt.Sprintf("ref-t = %.2f", p.Temperature),
		"gen-vel = yes",
		"free-energy = yes",
		fmt.Sprintf("init-lambda-state = %d", state),
		fmt.Sprintf("fep-lambdas = %s", strings.Join(lambdas, " ")),
		fmt.Sprintf("nstdhdl = %d", p.ReportInterval),
		"sc-alpha = 0.5",
		"sc-power = 1",
		"sc-sigma = 0.3",
	}

	config = append(config, coupling...)

	if p.ConstantPressure() {
		config = append(config, pressureCoupling(*p.Pressure)...)
	}

	return config, nil
}

// couplingFor maps a perturbation type onto the interaction coupling at the
// two lambda end states.
func couplingFor(perturbation protocol.Perturbation) ([]string, error) {
	var lambda0, lambda1 string

	switch perturbation {
	case protocol.PerturbationFull:
		lambda0, lambda1 = "vdw-q", "none"
	case protocol.PerturbationDischargeSoft:
		lambda0, lambda1 = "vdw-q", "vdw"
	case protocol.PerturbationVanishSoft:
		lambda0, lambda1 = "vdw", "none"
	case protocol.PerturbationFlip:
		lambda0, lambda1 = "vdw-q", "vdw-q"
	case protocol.PerturbationGrowSoft:
		lambda0, lambda1 = "none", "vdw"
	case protocol.PerturbationChargeSoft:
		lambda0, lambda1 = "vdw", "vdw-q"
	default:
		return nil, fmt.Errorf("unknown perturbation type '%s'", perturbation)
	}

	return []string{
		"couple-lambda0 = " + lambda0,
		"couple-lambda1 = " + lambda1,
	}, nil
}

// pressureCoupling converts a pressure in atmospheres to the barostat lines,
// ref-p is in bar.
func pressureCoupling(atm float64) []string {
	return []string{
		"pcoupl = berendsen",
		"tau-p = 1.0",
		fmt.Sprintf("ref-p = %.5f", atm*1.01325),
		"compressibility = 4.5e-5",
	}
}
