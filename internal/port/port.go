package port

import (
	"errors"
	"fmt"
	"reflect"
)

// Handle is the type-erased view of a Port used by the compiler and by
// nodes that work with ports of arbitrary value types.
type Handle interface {
	// ValueType is the Go type carried by the port.
	ValueType() reflect.Type
	// Get resolves the current value through the upstream chain.
	Get() any
	// Set writes the port's own default value, coercing v when needed.
	Set(v any) error
	// Link makes this port the value source of target.
	Link(target Handle) error
	// Unlink removes the upstream source, if any.
	Unlink()
	// Linked reports whether the port has an upstream source.
	Linked() bool
	// Source returns the upstream port, or nil.
	Source() Handle

	attach(source Handle, conv Conversion)
}

// Port is a typed value cell. The zero value is an unlinked port holding the
// zero value of T.
type Port[T any] struct {
	defaultValue T
	getter       *Port[T]
	adapted      *adaptedGetter[T]
}

// adaptedGetter reads a source of a different value type through a conversion.
type adaptedGetter[T any] struct {
	source  Handle
	convert Conversion
}

func (a *adaptedGetter[T]) read() T {
	v, _ := a.convert(a.source.Get()).(T)
	return v
}

// New returns an unlinked port holding v.
func New[T any](v T) *Port[T] {
	return &Port[T]{defaultValue: v}
}

// MakeArray allocates a port array of the given length.
func MakeArray[T any](length int) []*Port[T] {
	ports := make([]*Port[T], length)
	for i := range ports {
		ports[i] = &Port[T]{}
	}
	return ports
}

// Handles returns the type-erased views of a port array.
func Handles[T any](ports []*Port[T]) []Handle {
	handles := make([]Handle, len(ports))
	for i, p := range ports {
		handles[i] = p
	}
	return handles
}

// Values reads every port of a port array.
func Values[T any](ports []*Port[T]) []T {
	values := make([]T, len(ports))
	for i, p := range ports {
		values[i] = p.Value()
	}
	return values
}

// Value resolves the port's value. Linked ports read their source on every
// call; unlinked ports return their default value.
func (p *Port[T]) Value() T {
	switch {
	case p.getter != nil:
		return p.getter.Value()
	case p.adapted != nil:
		return p.adapted.read()
	default:
		return p.defaultValue
	}
}

// SetValue writes the default value. Links only affect reads, so a linked
// port keeps reporting its source's value.
func (p *Port[T]) SetValue(v T) {
	p.defaultValue = v
}

// Default returns the locally stored value, ignoring any link.
func (p *Port[T]) Default() T {
	return p.defaultValue
}

// ValueType implements Handle.
func (p *Port[T]) ValueType() reflect.Type {
	return reflect.TypeFor[T]()
}

// Get implements Handle.
func (p *Port[T]) Get() any {
	return p.Value()
}

// Set implements Handle.
func (p *Port[T]) Set(v any) error {
	value, err := Coerce[T](v)
	if err != nil {
		return err
	}
	p.defaultValue = value
	return nil
}

// Link makes p the value source of target. Rewiring a target replaces its
// previous source. Linking ports of different value types requires a
// conversion known to the default conversion table.
func (p *Port[T]) Link(target Handle) error {
	if target == nil {
		return errors.New("cannot link to a nil port")
	}
	if h, ok := target.(*Port[T]); ok && h == p {
		return errors.New("cannot link a port to itself")
	}

	from, to := p.ValueType(), target.ValueType()
	if from == to {
		target.attach(p, nil)
		return nil
	}

	conv, ok := defaultTable.Lookup(from, to)
	if !ok {
		return &ConversionError{From: from, To: to}
	}
	target.attach(p, conv)
	return nil
}

// Unlink implements Handle.
func (p *Port[T]) Unlink() {
	p.getter = nil
	p.adapted = nil
}

// Linked implements Handle.
func (p *Port[T]) Linked() bool {
	return p.getter != nil || p.adapted != nil
}

// Source implements Handle.
func (p *Port[T]) Source() Handle {
	switch {
	case p.getter != nil:
		return p.getter
	case p.adapted != nil:
		return p.adapted.source
	default:
		return nil
	}
}

func (p *Port[T]) attach(source Handle, conv Conversion) {
	if conv == nil {
		if same, ok := source.(*Port[T]); ok {
			p.getter = same
			p.adapted = nil
			return
		}
		conv = identity
	}
	p.getter = nil
	p.adapted = &adaptedGetter[T]{source: source, convert: conv}
}

// String is used in log output.
func (p *Port[T]) String() string {
	return fmt.Sprintf("port[%s]", p.ValueType())
}
