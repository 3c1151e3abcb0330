package protocol

import "fmt"

// Equilibration brings a system to a target temperature, optionally under
// pressure coupling and with position restraints. Temperatures may differ to
// heat or cool the system over the course of the run.
type Equilibration struct {
	// Timestep is the integration step in femtoseconds.
	Timestep float64 `json:"timestep" validate:"gt=0"`

	// Runtime is the simulation length in nanoseconds.
	Runtime float64 `json:"runtime" validate:"gt=0"`

	// StartTemperature and EndTemperature are in kelvin.
	StartTemperature float64 `json:"start_temperature" validate:"min=0,max=1000"`
	EndTemperature   float64 `json:"end_temperature" validate:"min=0,max=1000"`

	// Pressure is in atmospheres; nil runs constant volume (NVT).
	Pressure *float64 `json:"pressure,omitempty" validate:"omitempty,min=0"`

	// ReportInterval and RestartInterval are in integration steps.
	ReportInterval  int64 `json:"report_interval" validate:"min=1"`
	RestartInterval int64 `json:"restart_interval" validate:"min=1"`

	// Restraint selects the restrained atom set.
	Restraint Restraint `json:"restraint" validate:"oneof=none backbone heavy all"`
}

// NewEquilibration returns an equilibration protocol with default parameters:
// 2 fs timestep, 0.2 ns at a constant 300 K, no pressure coupling, no
// restraints.
func NewEquilibration() *Equilibration {
	return &Equilibration{
		Timestep:         2.0,
		Runtime:          0.2,
		StartTemperature: 300,
		EndTemperature:   300,
		ReportInterval:   100,
		RestartInterval:  500,
		Restraint:        RestraintNone,
	}
}

func (e *Equilibration) Name() string { return "equilibration" }

// ConstantTemperature reports whether the run holds one temperature.
func (e *Equilibration) ConstantTemperature() bool {
	return e.StartTemperature == e.EndTemperature
}

// ConstantPressure reports whether pressure coupling is enabled.
func (e *Equilibration) ConstantPressure() bool {
	return e.Pressure != nil
}

// Steps returns the total number of integration steps. The timestep is in
// femtoseconds and the runtime in nanoseconds, hence the factor.
func (e *Equilibration) Steps() int64 {
	return int64(e.Runtime * 1e6 / e.Timestep)
}

func (e *Equilibration) Validate() error {
	if err := validateStruct(e.Name(), e); err != nil {
		return err
	}

	if e.Steps() < 1 {
		return fmt.Errorf("invalid %s protocol: runtime %g ns is shorter than one %g fs step", e.Name(), e.Runtime, e.Timestep)
	}

	return nil
}
