package baf

import (
	"math/big"
	"reflect"
	"time"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// BytesType is the capsule type that carries raw byte payloads through the
// cty value tree. TOML and JSON have no byte literal, so byte payloads
// normally arrive from setters or field defaults via Raw.
var BytesType = cty.Capsule("bytes", reflect.TypeOf([]byte(nil)))

// Raw wraps a byte slice as a value of BytesType.
func Raw(b []byte) cty.Value {
	return cty.CapsuleVal(BytesType, &b)
}

// Int returns a cty number for use in setter results.
func Int(n int64) cty.Value { return cty.NumberIntVal(n) }

// Uint returns a cty number covering the full unsigned 64-bit range.
func Uint(n uint64) cty.Value { return cty.NumberUIntVal(n) }

// Str returns a cty string for use in setter results.
func Str(s string) cty.Value { return cty.StringVal(s) }

func isBytes(v cty.Value) bool {
	return v.Type().Equals(BytesType)
}

func rawBytes(v cty.Value) []byte {
	return *(v.EncapsulatedValue().(*[]byte))
}

func friendlyType(v cty.Value) string {
	if v == cty.NilVal || v.IsNull() {
		return "null"
	}
	return v.Type().FriendlyName()
}

func isMapping(v cty.Value) bool {
	t := v.Type()
	return t.IsObjectType() || t.IsMapType()
}

func isSequence(v cty.Value) bool {
	t := v.Type()
	return t.IsTupleType() || t.IsListType() || t.IsSetType()
}

// attr fetches a mapping entry by name from an object or map value.
func attr(v cty.Value, name string) (cty.Value, bool) {
	t := v.Type()
	switch {
	case t.IsObjectType():
		if !t.HasAttribute(name) {
			return cty.NilVal, false
		}
		return v.GetAttr(name), true
	case t.IsMapType():
		key := cty.StringVal(name)
		if v.HasIndex(key).False() {
			return cty.NilVal, false
		}
		return v.Index(key), true
	}
	return cty.NilVal, false
}

// elements returns the sequence members in order.
func elements(v cty.Value) []cty.Value {
	out := make([]cty.Value, 0, v.LengthInt())
	for it := v.ElementIterator(); it.Next(); {
		_, ev := it.Element()
		out = append(out, ev)
	}
	return out
}

// integerValue extracts an exact integer from a cty number. Fractional
// numbers and non-number values are a TypeMismatch against typeName.
func integerValue(v cty.Value, typeName string) (*big.Int, error) {
	if v.IsNull() || v.Type() != cty.Number {
		return nil, newError(TypeMismatch, "%s expects an integer, received %s", typeName, friendlyType(v))
	}
	bi, acc := v.AsBigFloat().Int(nil)
	if acc != big.Exact {
		return nil, newError(TypeMismatch, "%s expects an integer, received fractional number %s",
			typeName, v.AsBigFloat().Text('g', -1))
	}
	return bi, nil
}

// nativeToValue converts a decoded Go value, as produced by the TOML
// front-end, into a cty value. Mappings become objects, sequences become
// tuples, and timestamps become RFC 3339 strings.
func nativeToValue(v any) (cty.Value, error) {
	switch x := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case map[string]any:
		if len(x) == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, len(x))
		for k, item := range x {
			cv, err := nativeToValue(item)
			if err != nil {
				return cty.NilVal, err
			}
			attrs[k] = cv
		}
		return cty.ObjectVal(attrs), nil
	case []map[string]any:
		items := make([]any, len(x))
		for i, item := range x {
			items[i] = item
		}
		return nativeToValue(items)
	case []any:
		if len(x) == 0 {
			return cty.EmptyTupleVal, nil
		}
		vals := make([]cty.Value, len(x))
		for i, item := range x {
			cv, err := nativeToValue(item)
			if err != nil {
				return cty.NilVal, err
			}
			vals[i] = cv
		}
		return cty.TupleVal(vals), nil
	case time.Time:
		return cty.StringVal(x.Format(time.RFC3339)), nil
	case int64:
		return gocty.ToCtyValue(x, cty.Number)
	case float64:
		return gocty.ToCtyValue(x, cty.Number)
	case bool:
		return gocty.ToCtyValue(x, cty.Bool)
	case string:
		return gocty.ToCtyValue(x, cty.String)
	}
	return cty.NilVal, newError(ParseError, "unsupported source value of type %T", v)
}
