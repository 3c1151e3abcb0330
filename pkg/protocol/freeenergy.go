package protocol

import (
	"fmt"
	"slices"
)

// FreeEnergy runs one window of an alchemical free energy calculation: a
// production simulation at a fixed lambda within a schedule of windows.
type FreeEnergy struct {
	// Lambda is the coupling parameter of this window.
	Lambda float64 `json:"lambda" validate:"min=0,max=1"`

	// LambdaValues is an explicit ascending window schedule containing
	// Lambda. When empty, a uniform grid of NumLambda windows spanning
	// [MinLambda, MaxLambda] is used instead.
	LambdaValues []float64 `json:"lambda_values,omitempty" validate:"omitempty,min=2,dive,min=0,max=1"`

	MinLambda float64 `json:"min_lambda" validate:"min=0,max=1"`
	MaxLambda float64 `json:"max_lambda" validate:"min=0,max=1"`
	NumLambda int     `json:"num_lambda" validate:"min=2"`

	// Perturbation selects the alchemical pathway.
	Perturbation Perturbation `json:"perturbation" validate:"oneof=full discharge_soft vanish_soft flip grow_soft charge_soft"`

	// Production parameters for the window itself.
	Timestep        float64  `json:"timestep" validate:"gt=0"`
	Runtime         float64  `json:"runtime" validate:"gt=0"`
	Temperature     float64  `json:"temperature" validate:"min=0,max=1000"`
	Pressure        *float64 `json:"pressure,omitempty" validate:"omitempty,min=0"`
	ReportInterval  int64    `json:"report_interval" validate:"min=1"`
	RestartInterval int64    `json:"restart_interval" validate:"min=1"`
	Restart         bool     `json:"restart"`
}

// NewFreeEnergy returns a free energy protocol with default parameters:
// lambda 0 on an 11-window grid over [0, 1], full perturbation, 2 fs
// timestep, 1 ns at 300 K.
func NewFreeEnergy() *FreeEnergy {
	return &FreeEnergy{
		Lambda:          0,
		MinLambda:       0,
		MaxLambda:       1,
		NumLambda:       11,
		Perturbation:    PerturbationFull,
		Timestep:        2.0,
		Runtime:         1.0,
		Temperature:     300,
		ReportInterval:  200,
		RestartInterval: 1000,
	}
}

func (f *FreeEnergy) Name() string { return "freeenergy" }

//// Windows returns the full lambda schedule: either the explicit values or a
// uniform grid of NumLambda points from MinLambda to MaxLambda inclusive.
func (f *FreeEnergy) Windows() []float64 {
	if len(f.LambdaValues) > 0 {
		return slices.Clone(f.LambdaValues)
	}

	if f.NumLambda < 2 {
		return nil
	}

	windows := make([]float64, f.NumLambda)
	step := (f.MaxLambda - f.MinLambda) / float64(f.NumLambda-1)

	for i := range windows {
		windows[i] = f.MinLambda + float64(i)*step
	}

	// Guard the endpoint against accumulation error.
	windows[f.NumLambda-1] = f.MaxLambda

	return windows
}

// WindowIndex returns the position of Lambda within the schedule.
func (f *FreeEnergy) WindowIndex() int {
	return slices.Index(f.Windows(), f.Lambda)
}

func (f *FreeEnergy) ConstantPressure() bool {
	return f.Pressure != nil
}

// Steps returns the total number of integration steps.
func (f *FreeEnergy) Steps() int64 {
	return int64(f.Runtime * 1e6 / f.Timestep)
}

func (f *FreeEnergy) Validate() error {
	if err := validateStruct(f.Name(), f); err != nil {
		return err
	}

	if len(f.LambdaValues) > 0 {
		if !slices.IsSorted(f.LambdaValues) {
			return fmt.Errorf("invalid %s protocol: lambda values must be ascending", f.Name())
		}

		for i := 1; i < len(f.LambdaValues); i++ {
			if f.LambdaValues[i] == f.LambdaValues[i-1] {
				return fmt.Errorf("invalid %s protocol: duplicate lambda value %g", f.Name(), f.LambdaValues[i])
			}
		}
	} else if f.MinLambda >= f.MaxLambda {
		return fmt.Errorf("invalid %s protocol: min lambda %g must be below max lambda %g", f.Name(), f.MinLambda, f.MaxLambda)
	}

	if f.WindowIndex() < 0 {
		return fmt.Errorf("invalid %s protocol: lambda %g is not in the window schedule", f.Name(), f.Lambda)
	}

	if f.Steps() < 1 {
		return fmt.Errorf("invalid %s protocol: runtime %g ns is shorter than one %g fs step", f.Name(), f.Runtime, f.Timestep)
	}

	return nil
}
