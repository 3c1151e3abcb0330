// Package protocol defines the simulation protocol presets: typed parameter
// sets with defaults and construction-time validation. Engines translate a
// protocol into their own configuration format; node factories translate one
// into input requirements.
package protocol

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// Protocol is the common capability of every preset. Engines switch on the
// concrete type to generate configuration.
type Protocol interface {
	// Name returns the protocol identifier, e.g. "minimisation".
	Name() string

	// Validate checks the parameter set and reports the first problem.
	Validate() error
}

// Restraint selects which atoms are position-restrained during a simulation.
type Restraint string

const (
	RestraintNone     Restraint = "none"
	RestraintBackbone Restraint = "backbone"
	RestraintHeavy    Restraint = "heavy"
	RestraintAll      Restraint = "all"
)

// Perturbation selects the alchemical pathway of a free energy simulation.
type Perturbation string

const (
	PerturbationFull          Perturbation = "full"
	PerturbationDischargeSoft Perturbation = "discharge_soft"
	PerturbationVanishSoft    Perturbation = "vanish_soft"
	PerturbationFlip          Perturbation = "flip"
	PerturbationGrowSoft      Perturbation = "grow_soft"
	PerturbationChargeSoft    Perturbation = "charge_soft"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Decode overlays an untyped configuration map onto a protocol struct.
// Numeric fields accept whole-valued floats because JSON documents decode
// numbers as float64.
func Decode(config map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     out,
		TagName:    "json",
		DecodeHook: wholeNumberHook,
	})
	if err != nil {
		return fmt.Errorf("building protocol decoder: %w", err)
	}

	if err := decoder.Decode(config); err != nil {
		return fmt.Errorf("decoding protocol configuration: %w", err)
	}

	return nil
}

func wholeNumberHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.Float64 {
		return data, nil
	}

	switch to.Kind() {
	case reflect.Int, reflect.Int32, reflect.Int64:
		f, ok := data.(float64)
		if !ok {
			return data, nil
		}

		n := int64(f)
		if float64(n) != f {
			return nil, fmt.Errorf("value %v is not a whole number", f)
		}

		return n, nil
	default:
		return data, nil
	}
}

func validateStruct(name string, p any) error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]

		return fmt.Errorf("invalid %s protocol: field %s failed %q validation", name, first.Field(), first.Tag())
	}

	return fmt.Errorf("invalid %s protocol: %w", name, err)
}
