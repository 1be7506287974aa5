package core

import (
	"context"
	"time"

	"github.com/specialistvlad/ceresflow/internal/flow"
	"github.com/specialistvlad/ceresflow/internal/port"
	"github.com/specialistvlad/ceresflow/internal/registry"
)

// BranchNode continues on "true" or "false" depending on its condition.
type BranchNode struct {
	flow.Base
	Condition port.Port[bool]
	True      flow.NodePort
	False     flow.NodePort
}

func (n *BranchNode) Execute(_ context.Context, ec *flow.ExecutionContext) error {
	if n.Condition.Value() {
		ec.Next(&n.True)
	} else {
		ec.Next(&n.False)
	}
	return nil
}

// SequenceNode runs each of its "then" outputs to completion, in order.
type SequenceNode struct {
	flow.Base
	Then []*flow.NodePort
}

func (n *SequenceNode) AllocatePortArray(name string, length int) error {
	return portArrays{"then": func(l int) { n.Then = flow.MakeNodePorts(l) }}.allocate(name, length)
}

func (n *SequenceNode) Execute(ctx context.Context, ec *flow.ExecutionContext) error {
	for _, p := range n.Then {
		if err := ec.ForwardPort(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// ForEachNode runs "body" once per element of "items", then "completed".
type ForEachNode[T any] struct {
	flow.Base
	Items     port.Port[[]T]
	Element   port.Port[T]
	Index     port.Port[int]
	Body      flow.NodePort
	Completed flow.NodePort
}

func (n *ForEachNode[T]) Execute(ctx context.Context, ec *flow.ExecutionContext) error {
	// Items is read once; the body may not change the iteration.
	items := n.Items.Value()
	for i, item := range items {
		n.Element.SetValue(item)
		n.Index.SetValue(i)
		if err := ec.ForwardPort(ctx, &n.Body); err != nil {
			return err
		}
	}
	ec.Next(&n.Completed)
	return nil
}

func forEach[T any](typeName string) *flow.Descriptor {
	return &flow.Descriptor{
		TypeName:    typeName,
		Category:    "flow",
		Executable:  true,
		Description: "Runs the body once per element.",
		New:         func() flow.Node { return &ForEachNode[T]{} },
		Ports: []flow.PortSpec{
			flow.Input("items", func(n *ForEachNode[T]) *port.Port[[]T] { return &n.Items }),
			flow.Output("element", func(n *ForEachNode[T]) *port.Port[T] { return &n.Element }),
			flow.Output("index", func(n *ForEachNode[T]) *port.Port[int] { return &n.Index }),
			flow.Exec("body", func(n *ForEachNode[T]) *flow.NodePort { return &n.Body }),
			flow.Exec("completed", func(n *ForEachNode[T]) *flow.NodePort { return &n.Completed }),
		},
	}
}

// WaitNode blocks the traversal for "seconds" or until it is cancelled.
type WaitNode struct {
	flow.Base
	Seconds port.Port[float64]
	Then    flow.NodePort
}

func (n *WaitNode) Execute(ctx context.Context, ec *flow.ExecutionContext) error {
	d := time.Duration(n.Seconds.Value() * float64(time.Second))
	if d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	ec.Next(&n.Then)
	return nil
}

func registerControl(r *registry.Registry) {
	r.RegisterNode(&flow.Descriptor{
		TypeName:    "flow.branch",
		Category:    "flow",
		Executable:  true,
		Description: "Chooses a path by condition.",
		New:         func() flow.Node { return &BranchNode{} },
		Ports: []flow.PortSpec{
			flow.Input("condition", func(n *BranchNode) *port.Port[bool] { return &n.Condition }),
			flow.Exec("true", func(n *BranchNode) *flow.NodePort { return &n.True }),
			flow.Exec("false", func(n *BranchNode) *flow.NodePort { return &n.False }),
		},
	})
	r.RegisterNode(&flow.Descriptor{
		TypeName:    "flow.sequence",
		Category:    "flow",
		Executable:  true,
		Description: "Runs several paths one after another.",
		New:         func() flow.Node { return &SequenceNode{} },
		Ports: []flow.PortSpec{
			flow.ExecArray("then", func(n *SequenceNode) []*flow.NodePort { return n.Then }),
		},
	})
	r.RegisterNode(forEach[int]("flow.foreach_int"))
	r.RegisterNode(forEach[float64]("flow.foreach_float"))
	r.RegisterNode(forEach[string]("flow.foreach_string"))
	r.RegisterNode(forEach[any]("flow.foreach_any"))
	r.RegisterNode(&flow.Descriptor{
		TypeName:    "flow.wait",
		Category:    "flow",
		Executable:  true,
		Description: "Pauses the traversal.",
		New:         func() flow.Node { return &WaitNode{} },
		Ports: []flow.PortSpec{
			flow.Input("seconds", func(n *WaitNode) *port.Port[float64] { return &n.Seconds }),
			flow.Exec("then", func(n *WaitNode) *flow.NodePort { return &n.Then }),
		},
	})
}
