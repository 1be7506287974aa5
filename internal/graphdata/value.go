package graphdata

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Decode converts a serialized value into a Go value of type t. Null values
// decode to the zero value. Interface-typed targets receive the natural Go
// form of the value (see Native).
func Decode(val cty.Value, t reflect.Type) (any, error) {
	if t == nil {
		return nil, fmt.Errorf("cannot decode into a nil type")
	}
	if val == cty.NilVal || val.IsNull() {
		return reflect.Zero(t).Interface(), nil
	}
	if !val.IsWhollyKnown() {
		return nil, fmt.Errorf("value of type %s is not known", val.Type().FriendlyName())
	}

	if t.Kind() == reflect.Interface {
		native := Native(val)
		if native != nil && !reflect.TypeOf(native).Implements(t) {
			return nil, fmt.Errorf("%T does not implement %s", native, t)
		}
		return native, nil
	}

	ptr := reflect.New(t)
	want, err := gocty.ImpliedType(ptr.Elem().Interface())
	if err != nil {
		return nil, fmt.Errorf("no serialized form for %s: %w", t, err)
	}
	converted, err := convert.Convert(val, want)
	if err != nil {
		return nil, fmt.Errorf("cannot convert %s to %s: %w", val.Type().FriendlyName(), t, err)
	}
	if err := gocty.FromCtyValue(converted, ptr.Interface()); err != nil {
		return nil, fmt.Errorf("cannot decode %s into %s: %w", val.Type().FriendlyName(), t, err)
	}
	return ptr.Elem().Interface(), nil
}

// DecodeAs is the typed form of Decode.
func DecodeAs[T any](val cty.Value) (T, error) {
	var zero T
	out, err := Decode(val, reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	if out == nil {
		return zero, nil
	}
	return out.(T), nil
}

// Native returns the natural Go form of a value: integral numbers become
// int, other numbers float64, collections []any and objects or maps
// map[string]any. Null and unknown values become nil.
func Native(val cty.Value) any {
	if val == cty.NilVal || val.IsNull() || !val.IsKnown() {
		return nil
	}
	ty := val.Type()
	switch {
	case ty == cty.String:
		return val.AsString()
	case ty == cty.Bool:
		return val.True()
	case ty == cty.Number:
		return nativeNumber(val.AsBigFloat())
	case ty.IsListType(), ty.IsSetType(), ty.IsTupleType():
		out := make([]any, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			out = append(out, Native(ev))
		}
		return out
	case ty.IsMapType(), ty.IsObjectType():
		out := make(map[string]any, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			out[k.AsString()] = Native(ev)
		}
		return out
	case ty.IsCapsuleType():
		return val.EncapsulatedValue()
	default:
		return nil
	}
}

func nativeNumber(f *big.Float) any {
	if f.IsInt() {
		if i, acc := f.Int64(); acc == big.Exact {
			return int(i)
		}
	}
	v, _ := f.Float64()
	return v
}

// Encode converts a Go value into its serialized form. Values produced by
// Native round-trip; other values go through their implied cty type.
func Encode(v any) (cty.Value, error) {
	switch x := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case cty.Value:
		return x, nil
	case string:
		return cty.StringVal(x), nil
	case bool:
		return cty.BoolVal(x), nil
	case int:
		return cty.NumberIntVal(int64(x)), nil
	case float64:
		return cty.NumberFloatVal(x), nil
	case []any:
		if len(x) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, len(x))
		for i, e := range x {
			ev, err := Encode(e)
			if err != nil {
				return cty.NilVal, fmt.Errorf("element %d: %w", i, err)
			}
			elems[i] = ev
		}
		return cty.TupleVal(elems), nil
	case map[string]any:
		if len(x) == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, len(x))
		for k, e := range x {
			ev, err := Encode(e)
			if err != nil {
				return cty.NilVal, fmt.Errorf("attribute %q: %w", k, err)
			}
			attrs[k] = ev
		}
		return cty.ObjectVal(attrs), nil
	}

	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("no serialized form for %T: %w", v, err)
	}
	val, err := gocty.ToCtyValue(v, ty)
	if err != nil {
		return cty.NilVal, fmt.Errorf("cannot encode %T: %w", v, err)
	}
	return val, nil
}
