package core

import (
	"context"

	"github.com/specialistvlad/ceresflow/internal/flow"
	"github.com/specialistvlad/ceresflow/internal/port"
	"github.com/specialistvlad/ceresflow/internal/registry"
)

// GetPropertyNode reads a registered property of the executing object.
type GetPropertyNode struct {
	flow.Base
	acc   flow.Accessor
	Value port.Port[any]
}

func (n *GetPropertyNode) Bind(bc *flow.BindContext) error {
	acc, err := bindProperty(bc)
	n.acc = acc
	return err
}

func (n *GetPropertyNode) Execute(_ context.Context, ec *flow.ExecutionContext) error {
	v, err := n.acc.Get(ec.Object())
	if err != nil {
		return err
	}
	n.Value.SetValue(v)
	return nil
}

// SetPropertyNode writes a registered property of the executing object.
type SetPropertyNode struct {
	flow.Base
	acc   flow.Accessor
	Value port.Port[any]
	Then  flow.NodePort
}

func (n *SetPropertyNode) Bind(bc *flow.BindContext) error {
	acc, err := bindProperty(bc)
	n.acc = acc
	return err
}

func (n *SetPropertyNode) Execute(_ context.Context, ec *flow.ExecutionContext) error {
	if err := n.acc.Set(ec.Object(), n.Value.Value()); err != nil {
		return err
	}
	ec.Next(&n.Then)
	return nil
}

func bindProperty(bc *flow.BindContext) (flow.Accessor, error) {
	owner, err := bc.String("owner")
	if err != nil {
		return flow.Accessor{}, err
	}
	name, err := bc.String("property")
	if err != nil {
		return flow.Accessor{}, err
	}
	return bc.Members.ResolveProperty(owner, name)
}

// FunctionNode calls a registered function with its "args" inputs. The
// executable variant runs in the control chain; the pure one is evaluated
// whenever a consumer reads its result.
type FunctionNode struct {
	flow.Base
	invoke flow.Invoker
	Args   []*port.Port[any]
	Result port.Port[any]
	Then   flow.NodePort
}

func (n *FunctionNode) AllocatePortArray(name string, length int) error {
	return portArrays{"args": func(l int) { n.Args = port.MakeArray[any](l) }}.allocate(name, length)
}

func (n *FunctionNode) Bind(bc *flow.BindContext) error {
	owner, err := bc.String("owner")
	if err != nil {
		return err
	}
	name, err := bc.String("function")
	if err != nil {
		return err
	}
	n.invoke, err = bc.Members.ResolveFunction(owner, name, len(n.Args))
	return err
}

func (n *FunctionNode) Execute(ctx context.Context, ec *flow.ExecutionContext) error {
	v, err := n.invoke(ctx, port.Values(n.Args))
	if err != nil {
		return err
	}
	n.Result.SetValue(v)
	ec.Next(&n.Then)
	return nil
}

func registerMembers(r *registry.Registry) {
	r.RegisterNode(&flow.Descriptor{
		TypeName:    "property.get",
		Category:    "property",
		Description: "Reads a property of the object.",
		New:         func() flow.Node { return &GetPropertyNode{} },
		Ports: []flow.PortSpec{
			flow.Output("value", func(n *GetPropertyNode) *port.Port[any] { return &n.Value }),
		},
	})
	r.RegisterNode(&flow.Descriptor{
		TypeName:    "property.set",
		Category:    "property",
		Executable:  true,
		Description: "Writes a property of the object.",
		New:         func() flow.Node { return &SetPropertyNode{} },
		Ports: []flow.PortSpec{
			flow.Input("value", func(n *SetPropertyNode) *port.Port[any] { return &n.Value }),
			flow.Exec("then", func(n *SetPropertyNode) *flow.NodePort { return &n.Then }),
		},
	})

	args := flow.InputArray("args", func(n *FunctionNode) []*port.Port[any] { return n.Args })
	result := flow.Output("result", func(n *FunctionNode) *port.Port[any] { return &n.Result })
	r.RegisterNode(&flow.Descriptor{
		TypeName:    "function.call",
		Category:    "function",
		Executable:  true,
		Description: "Calls a function.",
		New:         func() flow.Node { return &FunctionNode{} },
		Ports: []flow.PortSpec{
			args, result,
			flow.Exec("then", func(n *FunctionNode) *flow.NodePort { return &n.Then }),
		},
	})
	r.RegisterNode(&flow.Descriptor{
		TypeName:    "function.eval",
		Category:    "function",
		Description: "Calls a side-effect free function.",
		New:         func() flow.Node { return &FunctionNode{} },
		Ports:       []flow.PortSpec{args, result},
	})
}
