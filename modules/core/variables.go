package core

import (
	"context"

	"github.com/specialistvlad/ceresflow/internal/flow"
	"github.com/specialistvlad/ceresflow/internal/port"
	"github.com/specialistvlad/ceresflow/internal/registry"
	"github.com/specialistvlad/ceresflow/internal/variable"
)

// GetVariableNode reads a blackboard variable. Shared and global variables
// are read through their binding.
type GetVariableNode struct {
	flow.Base
	v     variable.Variable
	Value port.Port[any]
}

func (n *GetVariableNode) Bind(bc *flow.BindContext) error {
	v, err := bindVariable(bc)
	n.v = v
	return err
}

func (n *GetVariableNode) Execute(context.Context, *flow.ExecutionContext) error {
	n.Value.SetValue(n.v.Any())
	return nil
}

// SetVariableNode writes "value" to a blackboard variable, converting it to
// the variable's type, and outputs the stored value.
type SetVariableNode struct {
	flow.Base
	v      variable.Variable
	Value  port.Port[any]
	Stored port.Port[any]
	Then   flow.NodePort
}

func (n *SetVariableNode) Bind(bc *flow.BindContext) error {
	v, err := bindVariable(bc)
	n.v = v
	return err
}

func (n *SetVariableNode) Execute(_ context.Context, ec *flow.ExecutionContext) error {
	value, err := port.CoerceTo(n.Value.Value(), n.v.ValueType())
	if err != nil {
		return err
	}
	if err := n.v.SetAny(value); err != nil {
		return err
	}
	n.Stored.SetValue(n.v.Any())
	ec.Next(&n.Then)
	return nil
}

func bindVariable(bc *flow.BindContext) (variable.Variable, error) {
	name, err := bc.String("variable")
	if err != nil {
		return nil, err
	}
	return bc.Variable(name)
}

func registerVariables(r *registry.Registry) {
	r.RegisterNode(&flow.Descriptor{
		TypeName:    "variable.get",
		Category:    "variable",
		Description: "Reads a variable.",
		New:         func() flow.Node { return &GetVariableNode{} },
		Ports: []flow.PortSpec{
			flow.Output("value", func(n *GetVariableNode) *port.Port[any] { return &n.Value }),
		},
	})
	r.RegisterNode(&flow.Descriptor{
		TypeName:    "variable.set",
		Category:    "variable",
		Executable:  true,
		Description: "Writes a variable.",
		New:         func() flow.Node { return &SetVariableNode{} },
		Ports: []flow.PortSpec{
			flow.Input("value", func(n *SetVariableNode) *port.Port[any] { return &n.Value }),
			flow.Output("stored", func(n *SetVariableNode) *port.Port[any] { return &n.Stored }),
			flow.Exec("then", func(n *SetVariableNode) *flow.NodePort { return &n.Then }),
		},
	})
}
