package port

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Conversion turns a value of the source type into a value of the target
// type. It never fails; values it cannot convert become the target's zero
// value.
type Conversion func(any) any

func identity(v any) any { return v }

// ConversionError is returned when two ports cannot be linked because no
// conversion between their value types is known.
type ConversionError struct {
	From reflect.Type
	To   reflect.Type
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("no conversion from %s to %s", typeName(e.From), typeName(e.To))
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

type conversionKey struct {
	from reflect.Type
	to   reflect.Type
}

// Table is a registry of implicit conversions keyed by (source, target) type.
// It is safe for concurrent use.
type Table struct {
	mu          sync.RWMutex
	conversions map[conversionKey]Conversion
}

// NewTable returns an empty conversion table.
func NewTable() *Table {
	return &Table{conversions: make(map[conversionKey]Conversion)}
}

var defaultTable = NewTable()

// Conversions returns the process-wide table used by Link and Coerce.
func Conversions() *Table {
	return defaultTable
}

// Register adds or replaces the conversion from one type to another.
func (t *Table) Register(from, to reflect.Type, conv Conversion) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conversions[conversionKey{from: from, to: to}] = conv
}

func (t *Table) registered(from, to reflect.Type) (Conversion, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	conv, ok := t.conversions[conversionKey{from: from, to: to}]
	return conv, ok
}

// Lookup finds a conversion from one value type to another. Identical types
// and registered pairs resolve directly. A concrete type converts to any
// interface type it implements. An interface-typed source converts to any
// target; the conversion is then picked on every call from the dynamic type
// of the value.
func (t *Table) Lookup(from, to reflect.Type) (Conversion, bool) {
	if from == nil || to == nil {
		return nil, false
	}
	if from == to {
		return identity, true
	}
	if conv, ok := t.registered(from, to); ok {
		return conv, true
	}
	if to.Kind() == reflect.Interface && from.Implements(to) {
		return identity, true
	}
	if from.Kind() == reflect.Interface {
		return t.unboxing(to), true
	}
	return nil, false
}

func (t *Table) unboxing(to reflect.Type) Conversion {
	zero := reflect.Zero(to).Interface()
	return func(v any) any {
		if v == nil {
			return zero
		}
		dynamic := reflect.TypeOf(v)
		if dynamic == to {
			return v
		}
		if to.Kind() == reflect.Interface && dynamic.Implements(to) {
			return v
		}
		if conv, ok := t.registered(dynamic, to); ok {
			return conv(v)
		}
		return zero
	}
}

// RegisterConversion registers fn in the process-wide table.
func RegisterConversion[S, T any](fn func(S) T) {
	defaultTable.Register(reflect.TypeFor[S](), reflect.TypeFor[T](), func(v any) any {
		s, _ := v.(S)
		return fn(s)
	})
}

// RegisterCtyConversion registers a conversion that goes through the cty
// type system: the source value is mapped to its implied cty type, converted
// with cty's standard conversion rules and decoded into T.
func RegisterCtyConversion[S, T any]() {
	var zero T
	want, err := gocty.ImpliedType(zero)
	if err != nil {
		panic(fmt.Sprintf("port: %s has no cty type: %v", reflect.TypeFor[T](), err))
	}
	RegisterConversion(func(s S) T {
		out, err := ctyConvert[T](s, want)
		if err != nil {
			return zero
		}
		return out
	})
}

func ctyConvert[T any](s any, want cty.Type) (T, error) {
	var out T
	ty, err := gocty.ImpliedType(s)
	if err != nil {
		return out, err
	}
	val, err := gocty.ToCtyValue(s, ty)
	if err != nil {
		return out, err
	}
	converted, err := convert.Convert(val, want)
	if err != nil {
		return out, err
	}
	if err := gocty.FromCtyValue(converted, &out); err != nil {
		return out, err
	}
	return out, nil
}

// Coerce converts an arbitrary value into T using the same rules as Link.
// A nil value yields the zero value of T.
func Coerce[T any](v any) (T, error) {
	var zero T
	if v == nil {
		return zero, nil
	}
	if t, ok := v.(T); ok {
		return t, nil
	}
	from, to := reflect.TypeOf(v), reflect.TypeFor[T]()
	conv, ok := defaultTable.Lookup(from, to)
	if !ok {
		return zero, &ConversionError{From: from, To: to}
	}
	out, ok := conv(v).(T)
	if !ok {
		return zero, &ConversionError{From: from, To: to}
	}
	return out, nil
}

// CoerceTo is Coerce for a type known only at run time.
func CoerceTo(v any, to reflect.Type) (any, error) {
	if v == nil {
		return reflect.Zero(to).Interface(), nil
	}
	from := reflect.TypeOf(v)
	conv, ok := defaultTable.Lookup(from, to)
	if !ok {
		return nil, &ConversionError{From: from, To: to}
	}
	out := conv(v)
	if out == nil {
		if to.Kind() == reflect.Interface {
			return nil, nil
		}
		return nil, &ConversionError{From: from, To: to}
	}
	if to.Kind() != reflect.Interface && reflect.TypeOf(out) != to {
		return nil, &ConversionError{From: from, To: to}
	}
	return out, nil
}

func init() {
	RegisterConversion(func(v float64) int { return int(v) })
	RegisterConversion(func(v int) float64 { return float64(v) })
	RegisterCtyConversion[int, string]()
	RegisterCtyConversion[float64, string]()
	RegisterCtyConversion[bool, string]()
	RegisterCtyConversion[string, float64]()
	RegisterCtyConversion[string, int]()
	RegisterCtyConversion[string, bool]()
}
