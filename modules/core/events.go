package core

import (
	"context"
	"fmt"

	"github.com/specialistvlad/ceresflow/internal/flow"
	"github.com/specialistvlad/ceresflow/internal/port"
	"github.com/specialistvlad/ceresflow/internal/registry"
)

// EventNode is the entry point of an event. Lifecycle events have a fixed
// name; custom events read it from their "event" property. Event arguments
// are exposed on the "args" port array.
type EventNode struct {
	flow.Base
	name  string
	fixed bool
	Args  []*port.Port[any]
	Then  flow.NodePort
}

func (n *EventNode) EventName() string { return n.name }

func (n *EventNode) Bind(bc *flow.BindContext) error {
	if n.fixed {
		return nil
	}
	name, err := bc.String("event")
	if err != nil {
		return err
	}
	n.name = name
	return nil
}

func (n *EventNode) AllocatePortArray(name string, length int) error {
	return portArrays{"args": func(l int) { n.Args = port.MakeArray[any](l) }}.allocate(name, length)
}

// AcceptArgs copies the event arguments onto the args ports. Extra
// arguments are ignored; ports without an argument are reset to nil.
func (n *EventNode) AcceptArgs(args []any) error {
	for i, p := range n.Args {
		if i < len(args) {
			p.SetValue(args[i])
		} else {
			p.SetValue(nil)
		}
	}
	return nil
}

func (n *EventNode) Execute(_ context.Context, ec *flow.ExecutionContext) error {
	ec.Next(&n.Then)
	return nil
}

func eventDescriptor(typeName, fixedName string) *flow.Descriptor {
	return &flow.Descriptor{
		TypeName:    typeName,
		Category:    "event",
		Executable:  true,
		Role:        flow.RoleEvent,
		Description: "Entry point of an event.",
		New: func() flow.Node {
			return &EventNode{name: fixedName, fixed: fixedName != ""}
		},
		Ports: []flow.PortSpec{
			flow.OutputArray("args", func(n *EventNode) []*port.Port[any] { return n.Args }),
			flow.Exec("then", func(n *EventNode) *flow.NodePort { return &n.Then }),
		},
	}
}

type dispatchDepthKey struct{}

// DispatchNode fires another event of the same graph and waits for it to
// finish before continuing.
type DispatchNode struct {
	flow.Base
	event string
	Args  []*port.Port[any]
	Then  flow.NodePort
}

func (n *DispatchNode) Bind(bc *flow.BindContext) error {
	name, err := bc.String("event")
	n.event = name
	return err
}

func (n *DispatchNode) AllocatePortArray(name string, length int) error {
	return portArrays{"args": func(l int) { n.Args = port.MakeArray[any](l) }}.allocate(name, length)
}

func (n *DispatchNode) Execute(ctx context.Context, ec *flow.ExecutionContext) error {
	depth, _ := ctx.Value(dispatchDepthKey{}).(int)
	if depth >= flow.MaxCallDepth {
		return fmt.Errorf("dispatch %q: %w", n.event, flow.ErrCallDepth)
	}
	ctx = context.WithValue(ctx, dispatchDepthKey{}, depth+1)

	handled, err := ec.Graph().TryExecuteEvent(ctx, ec.Object(), n.event, port.Values(n.Args)...)
	if err != nil {
		return err
	}
	if !handled {
		ec.Logger().Debug("Dispatched event has no handler.", "dispatched", n.event)
	}
	ec.Next(&n.Then)
	return nil
}

func registerEvents(r *registry.Registry) {
	r.RegisterNode(eventDescriptor("event.custom", ""))
	r.RegisterNode(eventDescriptor("event.awake", EventAwake))
	r.RegisterNode(eventDescriptor("event.start", EventStart))
	r.RegisterNode(eventDescriptor("event.destroy", EventDestroy))
	r.RegisterAlias("event.execution", "event.custom")

	r.RegisterNode(&flow.Descriptor{
		TypeName:    "event.dispatch",
		Category:    "event",
		Executable:  true,
		Description: "Runs another event of the same graph.",
		New:         func() flow.Node { return &DispatchNode{} },
		Ports: []flow.PortSpec{
			flow.InputArray("args", func(n *DispatchNode) []*port.Port[any] { return n.Args }),
			flow.Exec("then", func(n *DispatchNode) *flow.NodePort { return &n.Then }),
		},
	})
}
