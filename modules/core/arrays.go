package core

import (
	"context"

	"github.com/specialistvlad/ceresflow/internal/flow"
	"github.com/specialistvlad/ceresflow/internal/port"
	"github.com/specialistvlad/ceresflow/internal/registry"
)

// MakeArrayNode collects its "items" inputs into one slice.
type MakeArrayNode[T any] struct {
	flow.Base
	Items []*port.Port[T]
	Array port.Port[[]T]
}

func (n *MakeArrayNode[T]) AllocatePortArray(name string, length int) error {
	return portArrays{"items": func(l int) { n.Items = port.MakeArray[T](l) }}.allocate(name, length)
}

func (n *MakeArrayNode[T]) Execute(context.Context, *flow.ExecutionContext) error {
	n.Array.SetValue(port.Values(n.Items))
	return nil
}

func makeArray[T any](typeName string) *flow.Descriptor {
	return &flow.Descriptor{
		TypeName:    typeName,
		Category:    "array",
		Description: "Builds an array from its inputs.",
		New:         func() flow.Node { return &MakeArrayNode[T]{} },
		Ports: []flow.PortSpec{
			flow.InputArray("items", func(n *MakeArrayNode[T]) []*port.Port[T] { return n.Items }),
			flow.Output("array", func(n *MakeArrayNode[T]) *port.Port[[]T] { return &n.Array }),
		},
	}
}

func registerArrays(r *registry.Registry) {
	r.RegisterNode(makeArray[int]("array.make_int"))
	r.RegisterNode(makeArray[float64]("array.make_float"))
	r.RegisterNode(makeArray[string]("array.make_string"))
	r.RegisterNode(makeArray[any]("array.make_any"))
}
