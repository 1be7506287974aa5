// Package variable implements graph variables: typed value cells that can be
// redirected to another variable and grouped into scopes.
//
// Variables take no locks on their values. A graph is expected to be driven
// by one traversal at a time; concurrent writers must synchronize themselves.
package variable

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Flags describe how a variable participates in scope binding.
type Flags uint8

const (
	// Shared variables bind to the nearest ancestor variable with the same name.
	Shared Flags = 1 << iota
	// Global variables bind to the root-most ancestor variable with the same name.
	Global
	// Exposed variables are visible to hosts inspecting the blackboard.
	Exposed
)

func (f Flags) Has(flag Flags) bool { return f&flag != 0 }

func (f Flags) String() string {
	var parts []string
	if f.Has(Shared) {
		parts = append(parts, "shared")
	}
	if f.Has(Global) {
		parts = append(parts, "global")
	}
	if f.Has(Exposed) {
		parts = append(parts, "exposed")
	}
	if len(parts) == 0 {
		return "local"
	}
	return strings.Join(parts, "|")
}

// ErrBindCycle is returned when a bind would make a variable redirect to itself.
var ErrBindCycle = errors.New("variable binding would form a cycle")

// TypeMismatchError is returned when binding or writing a variable with a
// value of the wrong type.
type TypeMismatchError struct {
	Name string
	Want reflect.Type
	Got  reflect.Type
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("variable %q holds %s, got %s", e.Name, e.Want, e.Got)
}

// Variable is the type-erased view of a Var used by scopes, the compiler and
// nodes that work with variables of any type.
type Variable interface {
	Name() string
	ValueType() reflect.Type
	Flags() Flags
	Any() any
	SetAny(v any) error
	BindAny(target Variable) error
	Bound() bool
	Dispose()
	ObserveAny(fn func(any)) (cancel func())
}

type observer[T any] struct {
	fn func(T)
}

// Var is a named typed variable. While bound, reads and writes go to the
// bind target instead of the local value.
type Var[T any] struct {
	name      string
	flags     Flags
	value     T
	target    *Var[T]
	observers []*observer[T]
}

// New returns an unbound variable holding value.
func New[T any](name string, value T, flags Flags) *Var[T] {
	return &Var[T]{name: name, value: value, flags: flags}
}

func (v *Var[T]) Name() string { return v.name }

func (v *Var[T]) Flags() Flags { return v.flags }

func (v *Var[T]) ValueType() reflect.Type { return reflect.TypeFor[T]() }

// Value reads through the redirection chain.
func (v *Var[T]) Value() T {
	if v.target != nil {
		return v.target.Value()
	}
	return v.value
}

// SetValue writes through the redirection chain. Observers of every variable
// along the chain are notified after the write.
func (v *Var[T]) SetValue(value T) {
	if v.target != nil {
		v.target.SetValue(value)
	} else {
		v.value = value
	}
	for _, o := range v.observers {
		if o.fn != nil {
			o.fn(value)
		}
	}
}

func (v *Var[T]) Any() any { return v.Value() }

func (v *Var[T]) SetAny(value any) error {
	if value == nil {
		var zero T
		v.SetValue(zero)
		return nil
	}
	typed, ok := value.(T)
	if !ok {
		return &TypeMismatchError{Name: v.name, Want: v.ValueType(), Got: reflect.TypeOf(value)}
	}
	v.SetValue(typed)
	return nil
}

// Bind redirects v to target. A later Bind replaces the earlier one; binding
// to nil is the same as Dispose.
func (v *Var[T]) Bind(target *Var[T]) error {
	if target == nil {
		v.target = nil
		return nil
	}
	for cur := target; cur != nil; cur = cur.target {
		if cur == v {
			return fmt.Errorf("bind %q to %q: %w", v.name, target.name, ErrBindCycle)
		}
	}
	v.target = target
	return nil
}

func (v *Var[T]) BindAny(target Variable) error {
	if target == nil {
		v.target = nil
		return nil
	}
	typed, ok := target.(*Var[T])
	if !ok {
		return &TypeMismatchError{Name: v.name, Want: v.ValueType(), Got: target.ValueType()}
	}
	return v.Bind(typed)
}

// Target returns the bind target, or nil.
func (v *Var[T]) Target() *Var[T] { return v.target }

func (v *Var[T]) Bound() bool { return v.target != nil }

// Dispose clears the redirection. The local value is left untouched.
func (v *Var[T]) Dispose() {
	v.target = nil
}

// Observe registers fn to run after every write through v.
func (v *Var[T]) Observe(fn func(T)) (cancel func()) {
	o := &observer[T]{fn: fn}
	v.observers = append(v.observers, o)
	return func() {
		for i, cur := range v.observers {
			if cur == o {
				v.observers = append(v.observers[:i], v.observers[i+1:]...)
				return
			}
		}
	}
}

func (v *Var[T]) ObserveAny(fn func(any)) (cancel func()) {
	return v.Observe(func(value T) { fn(value) })
}

func (v *Var[T]) String() string {
	return fmt.Sprintf("%s(%s, %s)", v.name, v.ValueType(), v.flags)
}
