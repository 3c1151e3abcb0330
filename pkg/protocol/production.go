package protocol

import "fmt"

// Production runs constant-temperature dynamics, optionally under pressure
// coupling, and records thermodynamic state at a fixed interval.
type Production struct {
	// Timestep is the integration step in femtoseconds.
	Timestep float64 `json:"timestep" validate:"gt=0"`

	// Runtime is the simulation length in nanoseconds.
	Runtime float64 `json:"runtime" validate:"gt=0"`

	// Temperature is in kelvin.
	Temperature float64 `json:"temperature" validate:"min=0,max=1000"`

	// Pressure is in atmospheres; nil runs constant volume (NVT).
	Pressure *float64 `json:"pressure,omitempty" validate:"omitempty,min=0"`

	// ReportInterval and RestartInterval are in integration steps.
	ReportInterval  int64 `json:"report_interval" validate:"min=1"`
	RestartInterval int64 `json:"restart_interval" validate:"min=1"`

	// Restart continues from a previous run: velocities come from the restart
	// file instead of being regenerated.
	Restart bool `json:"restart"`

	// FirstStep offsets step numbering when restarting.
	FirstStep int64 `json:"first_step" validate:"min=0"`
}

// NewProduction returns a production protocol with default parameters:
// 2 fs timestep, 1 ns at a constant 300 K, no pressure coupling.
func NewProduction() *Production {
	return &Production{
		Timestep:        2.0,
		Runtime:         1.0,
		Temperature:     300,
		ReportInterval:  200,
		RestartInterval: 1000,
	}
}

func (p *Production) Name() string { return "production" }

// ConstantPressure reports whether pressure coupling is enabled.
func (p *Production) ConstantPressure() bool {
	return p.Pressure != nil
}

// Steps returns the total number of integration steps.
func (p *Production) Steps() int64 {
	return int64(p.Runtime * 1e6 / p.Timestep)
}

func (p *Production) Validate() error {
	if err := validateStruct(p.Name(), p); err != nil {
		return err
	}

	if p.Steps() < 1 {
		return fmt.Errorf("invalid %s protocol: runtime %g ns is shorter than one %g fs step", p.Name(), p.Runtime, p.Timestep)
	}

	return nil
}
