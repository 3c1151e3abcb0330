package minimisation

import (
	"context"

	"github.com/simgate/simgate/pkg/engines/gromacs"
	"github.com/simgate/simgate/pkg/engines/namd"
	"github.com/simgate/simgate/pkg/gateway"
	"github.com/simgate/simgate/pkg/nodes/simulation"
	"github.com/simgate/simgate/pkg/process"
	"github.com/simgate/simgate/pkg/protocol"
)

// Node runs an energy minimisation.
type Node struct {
	controls *gateway.Node
	proto    *protocol.Minimisation
}

// New builds the requirement surface for a minimisation around proto's
// values.
func New(proto *protocol.Minimisation) (*Node, error) {
	controls, err := gateway.NewNode("Energy minimisation of a molecular system.")
	if err != nil {
		return nil, err
	}

	steps, err := gateway.NewInteger("maximum number of minimisation steps",
		gateway.IntegerMinimum(1),
		gateway.IntegerMaximum(1000000),
		gateway.IntegerDefault(proto.Steps))
	if err != nil {
		return nil, err
	}

	if err := controls.AddInput("steps", steps); err != nil {
		return nil, err
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

// Execute runs the minimisation in workDir.
func (n *Node) Execute(ctx context.Context, workDir string) (*process.RecordSet, error) {
	steps, err := n.controls.Input("steps")
	if err != nil {
		return nil, err
	}

	n.proto.Steps = steps.(int64)

	return simulation.Run(ctx, n.controls, n.proto, workDir)
}
