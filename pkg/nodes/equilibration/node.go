package equilibration

import (
	"context"

	"github.com/simgate/simgate/pkg/engines/gromacs"
	"github.com/simgate/simgate/pkg/engines/namd"
	"github.com/simgate/simgate/pkg/gateway"
	"github.com/simgate/simgate/pkg/nodes/simulation"
	"github.com/simgate/simgate/pkg/process"
	"github.com/simgate/simgate/pkg/protocol"
)

// Node runs a thermal equilibration.
type Node struct {
	controls *gateway.Node
	proto    *protocol.Equilibration
}

// New builds the requirement surface for an equilibration around proto's
// values.
func New(proto *protocol.Equilibration) (*Node, error) {
	controls, err := gateway.NewNode("Thermal equilibration of a molecular system.")
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

	startTemp, err := gateway.NewFloat("starting temperature in kelvin",
		gateway.FloatMinimum(0),
		gateway.FloatMaximum(1000),
		gateway.FloatDefault(proto.StartTemperature))
	if err != nil {
		return nil, err
	}

	endTemp, err := gateway.NewFloat("target temperature in kelvin",
		gateway.FloatMinimum(0),
		gateway.FloatMaximum(1000),
		gateway.FloatDefault(proto.EndTemperature))
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

	restraint, err := gateway.NewString("atoms held in place during the run",
		gateway.StringAllowed("none", "backbone", "heavy", "all"),
		gateway.StringDefault(string(proto.Restraint)))
	if err != nil {
		return nil, err
	}

	inputs := []struct {
		name string
		req  gateway.Requirement
	}{
		{"timestep", timestep},
		{"runtime", runtime},
		{"start_temperature", startTemp},
		{"end_temperature", endTemp},
		{"pressure", pressure},
		{"report_interval", reportInterval},
		{"restart_interval", restartInterval},
		{"restraint", restraint},
	}
	for _, in := range inputs {
		if err := controls.AddInput(in.name, in.req); err != nil {
			return nil, err
		}
	}

	if err := simulation.AddFileInputs(controls, gromacs.Name, namd.Name); err != nil {
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

// Execute runs the equilibration in workDir.
func (n *Node) Execute(ctx context.Context, workDir string) (*process.RecordSet, error) {
	if err := n.applyInputs(); err != nil {
		return nil, err
	}

	return simulation.Run(ctx, n.controls, n.proto, workDir)
}

// applyInputs folds the bound requirement values back onto the protocol.
func (n *Node) applyInputs() error {
	timestep, err := n.controls.Input("timestep")
	if err != nil {
		return err
	}

	runtime, err := n.controls.Input("runtime")
	if err != nil {
		return err
	}

	startTemp, err := n.controls.Input("start_temperature")
	if err != nil {
		return err
	}

	endTemp, err := n.controls.Input("end_temperature")
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

	restraint, err := n.controls.Input("restraint")
	if err != nil {
		return err
	}

	n.proto.Timestep = timestep.(float64)
	n.proto.Runtime = runtime.(float64)
	n.proto.StartTemperature = startTemp.(float64)
	n.proto.EndTemperature = endTemp.(float64)
	n.proto.ReportInterval = reportInterval.(int64)
	n.proto.RestartInterval = restartInterval.(int64)
	n.proto.Restraint = protocol.Restraint(restraint.(string))

	if pressure != nil {
		p := pressure.(float64)
		n.proto.Pressure = &p
	}

	return nil
}
