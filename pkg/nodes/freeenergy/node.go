package freeenergy

import (
	"context"

	"github.com/simgate/simgate/pkg/engines/gromacs"
	"github.com/simgate/simgate/pkg/gateway"
	"github.com/simgate/simgate/pkg/nodes/simulation"
	"github.com/simgate/simgate/pkg/process"
	"github.com/simgate/simgate/pkg/protocol"
)

// Node runs one alchemical free energy window. Only the GROMACS engine
// supports alchemical coupling.
type Node struct {
	controls *gateway.Node
	proto    *protocol.FreeEnergy
}

// New builds the requirement surface for a free energy window around proto's
// values. The explicit window schedule, when configured, is carried on the
// protocol and is not exposed as a requirement.
func New(proto *protocol.FreeEnergy) (*Node, error) {
	controls, err := gateway.NewNode("One window of an alchemical free energy calculation.")
	if err != nil {
		return nil, err
	}

	lambda, err := gateway.NewFloat("coupling parameter of this window",
		gateway.FloatMinimum(0),
		gateway.FloatMaximum(1),
		gateway.FloatDefault(proto.Lambda))
	if err != nil {
		return nil, err
	}

	minLambda, err := gateway.NewFloat("lower bound of the uniform window grid",
		gateway.FloatMinimum(0),
		gateway.FloatMaximum(1),
		gateway.FloatDefault(proto.MinLambda))
	if err != nil {
		return nil, err
	}

	maxLambda, err := gateway.NewFloat("upper bound of the uniform window grid",
		gateway.FloatMinimum(0),
		gateway.FloatMaximum(1),
		gateway.FloatDefault(proto.MaxLambda))
	if err != nil {
		return nil, err
	}

	numLambda, err := gateway.NewInteger("number of windows in the uniform grid",
		gateway.IntegerMinimum(2),
		gateway.IntegerDefault(int64(proto.NumLambda)))
	if err != nil {
		return nil, err
	}

	perturbation, err := gateway.NewString("alchemical pathway",
		gateway.StringAllowed("full", "discharge_soft", "vanish_soft",
			"flip", "grow_soft", "charge_soft"),
		gateway.StringDefault(string(proto.Perturbation)))
	if err != nil {
		return nil, err
	}

	timestep, err := gateway.NewFloat("integration timestep in femtoseconds",
		gateway.FloatMinimum(0),
		gateway.FloatDefault(proto.Timestep))
	if err != nil {
		return nil, err
	}

	runtime, err := gateway.NewFloat("total simulation time in nanoseconds",
		gateway.FloatMinimum(0),
		gateway.FloatDefault(proto.Runtime))
	if err != nil {
		return nil, err
	}

	temperature, err := gateway.NewFloat("temperature in kelvin",
		gateway.FloatMinimum(0),
		gateway.FloatMaximum(1000),
		gateway.FloatDefault(proto.Temperature))
	if err != nil {
		return nil, err
	}

	pressureOpts := []gateway.FloatOption{
		gateway.FloatOptional(),
		gateway.FloatMinimum(0),
	}
	if proto.ConstantPressure() {
		pressureOpts = append(pressureOpts, gateway.FloatDefault(*proto.Pressure))
	}

	pressure, err := gateway.NewFloat("pressure in atmospheres, omit for constant volume", pressureOpts...)
	if err != nil {
		return nil, err
	}

	reportInterval, err := gateway.NewInteger("steps between energy records",
		gateway.IntegerMinimum(1),
		gateway.IntegerDefault(proto.ReportInterval))
	if err != nil {
		return nil, err
	}

	restartInterval, err := gateway.NewInteger("steps between restart checkpoints",
		gateway.IntegerMinimum(1),
		gateway.IntegerDefault(proto.RestartInterval))
	if err != nil {
		return nil, err
	}

	restart, err := gateway.NewBoolean("continue from a previous run",
		gateway.BooleanDefault(proto.Restart))
	if err != nil {
		return nil, err
	}

	inputs := []struct {
		name string
		req  gateway.Requirement
	}{
		{"lambda", lambda},
		{"min_lambda", minLambda},
		{"max_lambda", maxLambda},
		{"num_lambda", numLambda},
		{"perturbation", perturbation},
		{"timestep", timestep},
		{"runtime", runtime},
		{"temperature", temperature},
		{"pressure", pressure},
		{"report_interval", reportInterval},
		{"restart_interval", restartInterval},
		{"restart", restart},
	}
	for _, in := range inputs {
		if err := controls.AddInput(in.name, in.req); err != nil {
			return nil, err
		}
	}

	if err := simulation.AddFileInputs(controls, gromacs.Name); err != nil {
		return nil, err
	}

	if err := simulation.AddRunOutputs(controls); err != nil {
		return nil, err
	}

	return &Node{controls: controls, proto: proto}, nil
}

// Controls returns the requirement surface.
func (n *Node) Controls() *gateway.Node {
	return n.controls
}

// Execute runs the free energy window in workDir.
func (n *Node) Execute(ctx context.Context, workDir string) (*process.RecordSet, error) {
	if err := n.applyInputs(); err != nil {
		return nil, err
	}

	return simulation.Run(ctx, n.controls, n.proto, workDir)
}

// applyInputs folds the bound requirement values back onto the protocol.
func (n *Node) applyInputs() error {
	lambda, err := n.controls.Input("lambda")
	if err != nil {
		return err
	}

	minLambda, err := n.controls.Input("min_lambda")
	if err != nil {
		return err
	}

	maxLambda, err := n.controls.Input("max_lambda")
	if err != nil {
		return err
	}

	numLambda, err := n.controls.Input("num_lambda")
	if err != nil {
		return err
	}

	perturbation, err := n.controls.Input("perturbation")
	if err != nil {
		return err
	}

	timestep, err := n.controls.Input("timestep")
	if err != nil {
		return err
	}

	runtime, err := n.controls.Input("runtime")
	if err != nil {
		return err
	}

	temperature, err := n.controls.Input("temperature")
	if err != nil {
		return err
	}

	pressure, err := n.controls.Input("pressure")
	if err != nil {
		return err
	}

	reportInterval, err := n.controls.Input("report_interval")
	if err != nil {
		return err
	}

	restartInterval, err := n.controls.Input("restart_interval")
	if err != nil {
		return err
	}

	restart, err := n.controls.Input("restart")
	if err != nil {
		return err
	}

	n.proto.Lambda = lambda.(float64)
	n.proto.MinLambda = minLambda.(float64)
	n.proto.MaxLambda = maxLambda.(float64)
	n.proto.NumLambda = int(numLambda.(int64))
	n.proto.Perturbation = protocol.Perturbation(perturbation.(string))
	n.proto.Timestep = timestep.(float64)
	n.proto.Runtime = runtime.(float64)
	n.proto.Temperature = temperature.(float64)
	n.proto.ReportInterval = reportInterval.(int64)
	n.proto.RestartInterval = restartInterval.(int64)
	n.proto.Restart = restart.(bool)

	if pressure != nil {
		p := pressure.(float64)
		n.proto.Pressure = &p
	}

	return nil
}
