package compiler

import (
	"context"
	"fmt"

	"github.com/specialistvlad/ceresflow/internal/flow"
	"github.com/specialistvlad/ceresflow/internal/port"
	"github.com/specialistvlad/ceresflow/internal/registry"
	"github.com/specialistvlad/ceresflow/internal/testutil"
)

type eventNode struct {
	flow.Base
	name string
	Then flow.NodePort
}

func (n *eventNode) Bind(bc *flow.BindContext) error {
	name, err := bc.String("event")
	n.name = name
	return err
}

func (n *eventNode) EventName() string { return n.name }

func (n *eventNode) Execute(_ context.Context, ec *flow.ExecutionContext) error {
	ec.Next(&n.Then)
	return nil
}

type constNode struct {
	flow.Base
	Out port.Port[int]
}

func (n *constNode) Bind(bc *flow.BindContext) error {
	v, err := flow.PropertyAs[int](bc, "value")
	n.Out.SetValue(v)
	return err
}

type addNode struct {
	flow.Base
	A   port.Port[int]
	B   port.Port[int]
	Out port.Port[int]
}

func (n *addNode) Execute(context.Context, *flow.ExecutionContext) error {
	n.Out.SetValue(n.A.Value() + n.B.Value())
	return nil
}

type sumNode struct {
	flow.Base
	Items []*port.Port[int]
	Out   port.Port[int]
}

func (n *sumNode) AllocatePortArray(name string, length int) error {
	if name != "items" {
		return fmt.Errorf("unknown port array %q", name)
	}
	n.Items = port.MakeArray[int](length)
	return nil
}

func (n *sumNode) Execute(context.Context, *flow.ExecutionContext) error {
	total := 0
	for _, v := range port.Values(n.Items) {
		total += v
	}
	n.Out.SetValue(total)
	return nil
}

type pointNode struct {
	flow.Base
	Out port.Port[struct{ X int }]
}

type callFuncNode struct {
	flow.Base
	invoke flow.Invoker
	Then   flow.NodePort
}

func (n *callFuncNode) Bind(bc *flow.BindContext) error {
	name, err := bc.String("function")
	if err != nil {
		return err
	}
	n.invoke, err = bc.Members.ResolveFunction("Test", name, 0)
	return err
}

type entryNode struct {
	flow.Base
	Arg  port.Port[int]
	Then flow.NodePort
}

func (n *entryNode) AcceptArgs(args []any) error {
	if len(args) > 0 {
		return n.Arg.Set(args[0])
	}
	return nil
}

func (n *entryNode) Execute(_ context.Context, ec *flow.ExecutionContext) error {
	ec.Next(&n.Then)
	return nil
}

type returnNode struct {
	flow.Base
	Value port.Port[int]
}

func (n *returnNode) Execute(_ context.Context, ec *flow.ExecutionContext) error {
	ec.SetResult(n.Value.Value())
	return nil
}

type callNode struct {
	flow.Base
	sub    *flow.Graph
	Arg    port.Port[int]
	Result port.Port[int]
	Then   flow.NodePort
}

func (n *callNode) Bind(bc *flow.BindContext) error {
	name, err := bc.String(flow.SubGraphProperty)
	if err != nil {
		return err
	}
	n.sub, err = bc.SubGraph(name)
	return err
}

func (n *callNode) Execute(ctx context.Context, ec *flow.ExecutionContext) error {
	v, err := ec.Call(ctx, n.sub, n.Arg.Value())
	if err != nil {
		return err
	}
	if err := n.Result.Set(v); err != nil {
		return err
	}
	ec.Next(&n.Then)
	return nil
}

func testRegistry(rec *testutil.Recorder) *registry.Registry {
	r := registry.New().Load(rec)
	r.RegisterNode(&flow.Descriptor{
		TypeName: "test.event", Executable: true, Role: flow.RoleEvent,
		New:   func() flow.Node { return &eventNode{} },
		Ports: []flow.PortSpec{flow.Exec("then", func(n *eventNode) *flow.NodePort { return &n.Then })},
	})
	r.RegisterNode(&flow.Descriptor{
		TypeName: "test.const",
		New:      func() flow.Node { return &constNode{} },
		Ports:    []flow.PortSpec{flow.Output("out", func(n *constNode) *port.Port[int] { return &n.Out })},
	})
	r.RegisterNode(&flow.Descriptor{
		TypeName: "test.add",
		New:      func() flow.Node { return &addNode{} },
		Ports: []flow.PortSpec{
			flow.Input("a", func(n *addNode) *port.Port[int] { return &n.A }),
			flow.Input("b", func(n *addNode) *port.Port[int] { return &n.B }),
			flow.Output("out", func(n *addNode) *port.Port[int] { return &n.Out }),
		},
	})
	r.RegisterAlias("test.plus", "test.add")
	r.RegisterNode(&flow.Descriptor{
		TypeName: "test.sum",
		New:      func() flow.Node { return &sumNode{} },
		Ports: []flow.PortSpec{
			flow.InputArray("items", func(n *sumNode) []*port.Port[int] { return n.Items }),
			flow.Output("out", func(n *sumNode) *port.Port[int] { return &n.Out }),
		},
	})
	r.RegisterNode(&flow.Descriptor{
		TypeName: "test.point",
		New:      func() flow.Node { return &pointNode{} },
		Ports:    []flow.PortSpec{flow.Output("out", func(n *pointNode) *port.Port[struct{ X int }] { return &n.Out })},
	})
	r.RegisterNode(&flow.Descriptor{
		TypeName: "test.call_func", Executable: true,
		New:   func() flow.Node { return &callFuncNode{} },
		Ports: []flow.PortSpec{flow.Exec("then", func(n *callFuncNode) *flow.NodePort { return &n.Then })},
	})
	r.RegisterNode(&flow.Descriptor{
		TypeName: "test.entry", Executable: true, Role: flow.RoleFunctionEntry,
		New: func() flow.Node { return &entryNode{} },
		Ports: []flow.PortSpec{
			flow.Output("arg", func(n *entryNode) *port.Port[int] { return &n.Arg }),
			flow.Exec("then", func(n *entryNode) *flow.NodePort { return &n.Then }),
		},
	})
	r.RegisterNode(&flow.Descriptor{
		TypeName: "test.return", Executable: true, Role: flow.RoleFunctionReturn,
		New:   func() flow.Node { return &returnNode{} },
		Ports: []flow.PortSpec{flow.Input("value", func(n *returnNode) *port.Port[int] { return &n.Value })},
	})
	r.RegisterNode(&flow.Descriptor{
		TypeName: "test.call", Executable: true,
		New: func() flow.Node { return &callNode{} },
		Ports: []flow.PortSpec{
			flow.Input("arg", func(n *callNode) *port.Port[int] { return &n.Arg }),
			flow.Output("result", func(n *callNode) *port.Port[int] { return &n.Result }),
			flow.Exec("then", func(n *callNode) *flow.NodePort { return &n.Then }),
		},
	})
	registry.Func0(r, "Test", "Ping", func(context.Context) (string, error) { return "pong", nil })
	registry.VariableOf[int](r, "int")
	return r
}
