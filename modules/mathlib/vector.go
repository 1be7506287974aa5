package mathlib

import (
	"math"

	"github.com/specialistvlad/ceresflow/internal/port"
)

// Vector2 is a 2D vector.
type Vector2 struct {
	X float64 `cty:"x"`
	Y float64 `cty:"y"`
}

func (v Vector2) Add(o Vector2) Vector2 { return Vector2{v.X + o.X, v.Y + o.Y} }

// Vector3 is a 3D vector.
type Vector3 struct {
	X float64 `cty:"x"`
	Y float64 `cty:"y"`
	Z float64 `cty:"z"`
}

func (v Vector3) Add(o Vector3) Vector3 { return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v Vector3) Length() float64 { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }

func init() {
	// Narrowing drops Z; widening sets it to zero.
	port.RegisterConversion(func(v Vector3) Vector2 { return Vector2{X: v.X, Y: v.Y} })
	port.RegisterConversion(func(v Vector2) Vector3 { return Vector3{X: v.X, Y: v.Y} })
}
