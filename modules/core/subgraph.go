package core

import (
	"context"

	"github.com/specialistvlad/ceresflow/internal/flow"
	"github.com/specialistvlad/ceresflow/internal/port"
	"github.com/specialistvlad/ceresflow/internal/registry"
)

// InputNode is the function entry of a sub-graph. The call arguments appear
// on its "args" outputs.
type InputNode struct {
	flow.Base
	Args []*port.Port[any]
	Then flow.NodePort
}

func (n *InputNode) AllocatePortArray(name string, length int) error {
	return portArrays{"args": func(l int) { n.Args = port.MakeArray[any](l) }}.allocate(name, length)
}

func (n *InputNode) AcceptArgs(args []any) error {
	for i, p := range n.Args {
		if i < len(args) {
			p.SetValue(args[i])
		} else {
			p.SetValue(nil)
		}
	}
	return nil
}

func (n *InputNode) Execute(_ context.Context, ec *flow.ExecutionContext) error {
	ec.Next(&n.Then)
	return nil
}

// ReturnNode ends a sub-graph call with "value" as its result.
type ReturnNode struct {
	flow.Base
	Value port.Port[any]
}

func (n *ReturnNode) Execute(_ context.Context, ec *flow.ExecutionContext) error {
	ec.SetResult(n.Value.Value())
	return nil
}

// CallNode calls a sibling sub-graph.
type CallNode struct {
	flow.Base
	sub    *flow.Graph
	Args   []*port.Port[any]
	Result port.Port[any]
	Then   flow.NodePort
}

func (n *CallNode) AllocatePortArray(name string, length int) error {
	return portArrays{"args": func(l int) { n.Args = port.MakeArray[any](l) }}.allocate(name, length)
}

func (n *CallNode) Bind(bc *flow.BindContext) error {
	name, err := bc.String(flow.SubGraphProperty)
	if err != nil {
		return err
	}
	n.sub, err = bc.SubGraph(name)
	return err
}

func (n *CallNode) Execute(ctx context.Context, ec *flow.ExecutionContext) error {
	v, err := ec.Call(ctx, n.sub, port.Values(n.Args)...)
	if err != nil {
		return err
	}
	n.Result.SetValue(v)
	ec.Next(&n.Then)
	return nil
}

func registerSubGraphs(r *registry.Registry) {
	r.RegisterNode(&flow.Descriptor{
		TypeName:    "subgraph.input",
		Category:    "subgraph",
		Executable:  true,
		Role:        flow.RoleFunctionEntry,
		Description: "Entry point of a sub-graph.",
		New:         func() flow.Node { return &InputNode{} },
		Ports: []flow.PortSpec{
			flow.OutputArray("args", func(n *InputNode) []*port.Port[any] { return n.Args }),
			flow.Exec("then", func(n *InputNode) *flow.NodePort { return &n.Then }),
		},
	})
	r.RegisterNode(&flow.Descriptor{
		TypeName:    "subgraph.return",
		Category:    "subgraph",
		Executable:  true,
		Role:        flow.RoleFunctionReturn,
		Description: "Returns from a sub-graph.",
		New:         func() flow.Node { return &ReturnNode{} },
		Ports: []flow.PortSpec{
			flow.Input("value", func(n *ReturnNode) *port.Port[any] { return &n.Value }),
		},
	})
	r.RegisterNode(&flow.Descriptor{
		TypeName:    "subgraph.call",
		Category:    "subgraph",
		Executable:  true,
		Description: "Calls a sub-graph of the same graph.",
		New:         func() flow.Node { return &CallNode{} },
		Ports: []flow.PortSpec{
			flow.InputArray("args", func(n *CallNode) []*port.Port[any] { return n.Args }),
			flow.Output("result", func(n *CallNode) *port.Port[any] { return &n.Result }),
			flow.Exec("then", func(n *CallNode) *flow.NodePort { return &n.Then }),
		},
	})
}
