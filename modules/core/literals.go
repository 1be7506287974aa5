package core

import (
	"github.com/specialistvlad/ceresflow/internal/flow"
	"github.com/specialistvlad/ceresflow/internal/port"
	"github.com/specialistvlad/ceresflow/internal/registry"
)

// LiteralNode outputs the constant held in its "value" property.
type LiteralNode[T any] struct {
	flow.Base
	Out port.Port[T]
}

func (n *LiteralNode[T]) Bind(bc *flow.BindContext) error {
	var zero T
	v, err := flow.PropertyOr(bc, "value", zero)
	if err != nil {
		return err
	}
	n.Out.SetValue(v)
	return nil
}

func literal[T any](typeName string) *flow.Descriptor {
	return &flow.Descriptor{
		TypeName:    typeName,
		Category:    "literal",
		Description: "Constant value.",
		New:         func() flow.Node { return &LiteralNode[T]{} },
		Ports: []flow.PortSpec{
			flow.Output("out", func(n *LiteralNode[T]) *port.Port[T] { return &n.Out }),
		},
	}
}

func registerLiterals(r *registry.Registry) {
	r.RegisterNode(literal[int]("literal.int"))
	r.RegisterNode(literal[float64]("literal.float"))
	r.RegisterNode(literal[string]("literal.string"))
	r.RegisterNode(literal[bool]("literal.bool"))
}
