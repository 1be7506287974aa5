// Package mathlib provides arithmetic nodes, vector types and math
// functions.
package mathlib

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/specialistvlad/ceresflow/internal/flow"
	"github.com/specialistvlad/ceresflow/internal/port"
	"github.com/specialistvlad/ceresflow/internal/registry"
)

// ErrDivideByZero is returned by division nodes.
var ErrDivideByZero = errors.New("division by zero")

type number interface {
	~int | ~float64
}

// BinaryNode applies an operator to inputs "a" and "b".
type BinaryNode[T any] struct {
	flow.Base
	op  func(a, b T) (T, error)
	A   port.Port[T]
	B   port.Port[T]
	Out port.Port[T]
}

func (n *BinaryNode[T]) Execute(context.Context, *flow.ExecutionContext) error {
	v, err := n.op(n.A.Value(), n.B.Value())
	if err != nil {
		return err
	}
	n.Out.SetValue(v)
	return nil
}

func binary[T any](typeName, description string, op func(a, b T) (T, error)) *flow.Descriptor {
	return &flow.Descriptor{
		TypeName:    typeName,
		Category:    "math",
		Description: description,
		New:         func() flow.Node { return &BinaryNode[T]{op: op} },
		Ports: []flow.PortSpec{
			flow.Input("a", func(n *BinaryNode[T]) *port.Port[T] { return &n.A }),
			flow.Input("b", func(n *BinaryNode[T]) *port.Port[T] { return &n.B }),
			flow.Output("out", func(n *BinaryNode[T]) *port.Port[T] { return &n.Out }),
		},
	}
}

func add[T number](a, b T) (T, error)      { return a + b, nil }
func subtract[T number](a, b T) (T, error) { return a - b, nil }
func multiply[T number](a, b T) (T, error) { return a * b, nil }

func divide(a, b float64) (float64, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	return a / b, nil
}

func modulo(a, b int) (int, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	return a % b, nil
}

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the math nodes, vector types and Math functions.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterNode(binary("math.add_int", "Sum of two integers.", add[int]))
	r.RegisterNode(binary("math.add_float", "Sum of two numbers.", add[float64]))
	r.RegisterNode(binary("math.subtract_int", "Difference of two integers.", subtract[int]))
	r.RegisterNode(binary("math.subtract_float", "Difference of two numbers.", subtract[float64]))
	r.RegisterNode(binary("math.multiply_int", "Product of two integers.", multiply[int]))
	r.RegisterNode(binary("math.multiply_float", "Product of two numbers.", multiply[float64]))
	r.RegisterNode(binary("math.divide_float", "Quotient of two numbers.", divide))
	r.RegisterNode(binary("math.modulo_int", "Remainder of an integer division.", modulo))
	r.RegisterAlias("math.add", "math.add_int")

	r.RegisterNode(binary("vector.add2", "Sum of two 2D vectors.", func(a, b Vector2) (Vector2, error) { return a.Add(b), nil }))
	r.RegisterNode(binary("vector.add3", "Sum of two 3D vectors.", func(a, b Vector3) (Vector3, error) { return a.Add(b), nil }))
	registry.VariableOf[Vector2](r, "vector2")
	registry.VariableOf[Vector3](r, "vector3")

	registry.Func1(r, "Math", "Abs", func(_ context.Context, x float64) (float64, error) {
		return math.Abs(x), nil
	})
	registry.Func1(r, "Math", "Sqrt", func(_ context.Context, x float64) (float64, error) {
		if x < 0 {
			return 0, fmt.Errorf("square root of negative number %v", x)
		}
		return math.Sqrt(x), nil
	})
	registry.Func2(r, "Math", "Max", func(_ context.Context, a, b float64) (float64, error) {
		return math.Max(a, b), nil
	})
	registry.Func2(r, "Math", "Min", func(_ context.Context, a, b float64) (float64, error) {
		return math.Min(a, b), nil
	})
	registry.Func3(r, "Math", "Clamp", func(_ context.Context, v, lo, hi float64) (float64, error) {
		if lo > hi {
			return 0, fmt.Errorf("clamp bounds out of order: %v > %v", lo, hi)
		}
		return math.Min(math.Max(v, lo), hi), nil
	})
	registry.Func1(r, "Vector", "Length", func(_ context.Context, v Vector3) (float64, error) {
		return v.Length(), nil
	})
}
