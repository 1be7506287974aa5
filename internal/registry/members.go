package registry

import (
	"context"
	"fmt"
	"reflect"

	"github.com/specialistvlad/ceresflow/internal/flow"
	"github.com/specialistvlad/ceresflow/internal/port"
)

// MemberNotFoundError is returned when a node binds to a function or property
// that is not registered.
type MemberNotFoundError struct {
	Kind  string
	Owner string
	Name  string
	Arity int
}

func (e *MemberNotFoundError) Error() string {
	if e.Kind == "function" {
		return fmt.Sprintf("function '%s.%s' with %d argument(s) is not registered", e.Owner, e.Name, e.Arity)
	}
	return fmt.Sprintf("%s '%s.%s' is not registered", e.Kind, e.Owner, e.Name)
}

// Function returns a registered function.
func (r *Registry) Function(owner, name string, arity int) (*Function, bool) {
	f, ok := r.functions[FunctionKey{Owner: owner, Name: name, Arity: arity}]
	return f, ok
}

// Property returns a registered property.
func (r *Registry) Property(owner, name string) (*Property, bool) {
	p, ok := r.properties[PropertyKey{Owner: owner, Name: name}]
	return p, ok
}

// ResolveFunction implements flow.MemberResolver.
func (r *Registry) ResolveFunction(owner, name string, arity int) (flow.Invoker, error) {
	f, ok := r.Function(owner, name, arity)
	if !ok {
		return nil, &MemberNotFoundError{Kind: "function", Owner: owner, Name: name, Arity: arity}
	}
	return f.Invoke, nil
}

// ResolveProperty implements flow.MemberResolver.
func (r *Registry) ResolveProperty(owner, name string) (flow.Accessor, error) {
	p, ok := r.Property(owner, name)
	if !ok {
		return flow.Accessor{}, &MemberNotFoundError{Kind: "property", Owner: owner, Name: name}
	}
	return p.Accessor, nil
}

func arg[T any](args []any, i int) (T, error) {
	v, err := port.Coerce[T](args[i])
	if err != nil {
		return v, fmt.Errorf("argument %d: %w", i, err)
	}
	return v, nil
}

func checkArity(args []any, n int) error {
	if len(args) != n {
		return fmt.Errorf("expected %d argument(s), got %d", n, len(args))
	}
	return nil
}

// Func0 registers a function without arguments.
func Func0[R any](r *Registry, owner, name string, fn func(ctx context.Context) (R, error)) {
	r.RegisterFunction(&Function{
		Owner: owner, Name: name, Result: reflect.TypeFor[R](),
		Invoke: func(ctx context.Context, args []any) (any, error) {
			if err := checkArity(args, 0); err != nil {
				return nil, err
			}
			return fn(ctx)
		},
	})
}

// Func1 registers a function of one argument. Arguments are coerced with
// the port conversion rules.
func Func1[A, R any](r *Registry, owner, name string, fn func(ctx context.Context, a A) (R, error)) {
	r.RegisterFunction(&Function{
		Owner: owner, Name: name, Result: reflect.TypeFor[R](),
		Params: []reflect.Type{reflect.TypeFor[A]()},
		Invoke: func(ctx context.Context, args []any) (any, error) {
			if err := checkArity(args, 1); err != nil {
				return nil, err
			}
			a, err := arg[A](args, 0)
			if err != nil {
				return nil, err
			}
			return fn(ctx, a)
		},
	})
}

// Func2 registers a function of two arguments.
func Func2[A, B, R any](r *Registry, owner, name string, fn func(ctx context.Context, a A, b B) (R, error)) {
	r.RegisterFunction(&Function{
		Owner: owner, Name: name, Result: reflect.TypeFor[R](),
		Params: []reflect.Type{reflect.TypeFor[A](), reflect.TypeFor[B]()},
		Invoke: func(ctx context.Context, args []any) (any, error) {
			if err := checkArity(args, 2); err != nil {
				return nil, err
			}
			a, err := arg[A](args, 0)
			if err != nil {
				return nil, err
			}
			b, err := arg[B](args, 1)
			if err != nil {
				return nil, err
			}
			return fn(ctx, a, b)
		},
	})
}

// Func3 registers a function of three arguments.
func Func3[A, B, C, R any](r *Registry, owner, name string, fn func(ctx context.Context, a A, b B, c C) (R, error)) {
	r.RegisterFunction(&Function{
		Owner: owner, Name: name, Result: reflect.TypeFor[R](),
		Params: []reflect.Type{reflect.TypeFor[A](), reflect.TypeFor[B](), reflect.TypeFor[C]()},
		Invoke: func(ctx context.Context, args []any) (any, error) {
			if err := checkArity(args, 3); err != nil {
				return nil, err
			}
			a, err := arg[A](args, 0)
			if err != nil {
				return nil, err
			}
			b, err := arg[B](args, 1)
			if err != nil {
				return nil, err
			}
			c, err := arg[C](args, 2)
			if err != nil {
				return nil, err
			}
			return fn(ctx, a, b, c)
		},
	})
}

// Prop registers a property of host objects of type O. A nil set makes the
// property read-only.
func Prop[O, T any](r *Registry, owner, name string, get func(O) T, set func(O, T)) {
	acc := flow.Accessor{
		Type: reflect.TypeFor[T](),
		Get: func(object any) (any, error) {
			o, ok := object.(O)
			if !ok {
				return nil, fmt.Errorf("property '%s.%s' needs a %s, got %T", owner, name, reflect.TypeFor[O](), object)
			}
			return get(o), nil
		},
	}
	if set != nil {
		acc.Set = func(object any, value any) error {
			o, ok := object.(O)
			if !ok {
				return fmt.Errorf("property '%s.%s' needs a %s, got %T", owner, name, reflect.TypeFor[O](), object)
			}
			v, err := port.Coerce[T](value)
			if err != nil {
				return fmt.Errorf("property '%s.%s': %w", owner, name, err)
			}
			set(o, v)
			return nil
		}
	}
	r.RegisterProperty(&Property{Owner: owner, Name: name, Accessor: acc})
}
