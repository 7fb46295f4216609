package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is a tagged union over the JSON values a schema-driven backend may
// send: null, bool, int64, float64, string, list, and map. Values are copied
// by value; the list and map variants share their backing storage, so callers
// that mutate them must copy first.
//
// Integer and floating-point numbers are kept as distinct kinds so that an
// integer decoded from the wire never re-encodes as a float.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	list []Value
	obj  map[string]Value
}

// Null returns the null Value. The zero Value is also null.
func Null() Value { return Value{} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns an integer Value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a floating-point Value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// List returns a list Value holding the given elements.
func List(elems ...Value) Value { return Value{kind: KindList, list: elems} }

// Map returns a map Value holding the given entries.
func Map(entries map[string]Value) Value { return Value{kind: KindMap, obj: entries} }

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the Value is the null variant.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean payload. ok is false for any other kind.
func (v Value) AsBool() (b, ok bool) { return v.b, v.kind == KindBool }

// AsInt returns the integer payload. ok is false for any other kind.
func (v Value) AsInt() (i int64, ok bool) { return v.i, v.kind == KindInt }

// AsFloat returns the numeric payload as a float64. Both int and float kinds
// succeed; ok is false otherwise.
func (v Value) AsFloat() (f float64, ok bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}

// AsString returns the string payload. ok is false for any other kind.
func (v Value) AsString() (s string, ok bool) { return v.s, v.kind == KindString }

// AsList returns the list payload. ok is false for any other kind.
func (v Value) AsList() (elems []Value, ok bool) { return v.list, v.kind == KindList }

// AsMap returns the map payload. ok is false for any other kind.
func (v Value) AsMap() (entries map[string]Value, ok bool) { return v.obj, v.kind == KindMap }

// Interface returns the payload as a plain Go value suitable for
// encoding/json marshaling: nil, bool, int64, float64, string, []any, or
// map[string]any.
func (v Value) Interface() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.obj))
		for k, e := range v.obj {
			out[k] = e.Interface()
		}
		return out
	}
	// Unreachable for values built through the constructors.
	return nil
}

// Text returns the payload rendered as a plain string: the string itself for
// string values, decimal form for numbers, "true"/"false" for booleans, the
// empty string for null, and compact JSON for lists and maps.
func (v Value) Text() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindList, KindMap:
		raw, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(raw)
	}
	return ""
}

// Equal reports deep equality of two Values. Kinds must match exactly: an
// int Value is never equal to a float Value of the same magnitude.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	case KindString:
		return v.s == other.s
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.obj) != len(other.obj) {
			return false
		}
		for k, e := range v.obj {
			o, ok := other.obj[k]
			if !ok || !e.Equal(o) {
				return false
			}
		}
		return true
	}
	return false
}

// DecodeValue decodes a single JSON value of any supported kind, scalars and
// composites alike. The match order is null, boolean, integer, float, string,
// list, map; the first successful match wins. A string "true" therefore
// decodes as the string variant, and a number only becomes a float when it is
// not in strict integer form.
func DecodeValue(data []byte) (Value, error) {
	return decodeValue(data, true)
}

// DecodeScalar decodes a single JSON scalar. Arrays and objects are rejected
// with a DECODE_ERROR; this is the entry point the record codec uses for
// field values, preserving its per-field drop tolerance for composites.
func DecodeScalar(data []byte) (Value, error) {
	return decodeValue(data, false)
}

func decodeValue(data []byte, composite bool) (Value, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return Value{}, NewDecodeError("value: empty input", nil)
	}

	switch trimmed[0] {
	case 'n':
		if trimmed == "null" {
			return Null(), nil
		}
	case 't', 'f':
		var b bool
		if err := json.Unmarshal([]byte(trimmed), &b); err == nil {
			return Bool(b), nil
		}
	case '"':
		var s string
		if err := json.Unmarshal([]byte(trimmed), &s); err == nil {
			return String(s), nil
		}
	case '[':
		if !composite {
			return Value{}, NewDecodeError("value: arrays are not supported at the scalar layer", nil)
		}
		var raws []json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &raws); err != nil {
			return Value{}, NewDecodeError("value: malformed array", err)
		}
		elems := make([]Value, len(raws))
		for i, raw := range raws {
			elem, err := decodeValue(raw, true)
			if err != nil {
				return Value{}, err
			}
			elems[i] = elem
		}
		return List(elems...), nil
	case '{':
		if !composite {
			return Value{}, NewDecodeError("value: objects are not supported at the scalar layer", nil)
		}
		var raws map[string]json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &raws); err != nil {
			return Value{}, NewDecodeError("value: malformed object", err)
		}
		entries := make(map[string]Value, len(raws))
		for k, raw := range raws {
			elem, err := decodeValue(raw, true)
			if err != nil {
				return Value{}, err
			}
			entries[k] = elem
		}
		return Map(entries), nil
	default:
		var num json.Number
		if err := json.Unmarshal([]byte(trimmed), &num); err == nil {
			return decodeNumber(num)
		}
	}

	return Value{}, NewDecodeError(fmt.Sprintf("value: cannot decode %.32q", trimmed), nil)
}

// decodeNumber applies the strict-integer-format check before falling back
// to float: a literal containing '.', 'e', or 'E' is a float even when its
// value is integral.
func decodeNumber(num json.Number) (Value, error) {
	lit := num.String()
	if !strings.ContainsAny(lit, ".eE") {
		if i, err := num.Int64(); err == nil {
			return Int(i), nil
		}
		// Integer literal outside int64 range; carry it as a float.
	}
	f, err := num.Float64()
	if err != nil {
		return Value{}, NewDecodeError(fmt.Sprintf("value: malformed number %q", lit), err)
	}
	return Float(f), nil
}

// UnmarshalJSON implements json.Unmarshaler using the composite decode policy.
func (v *Value) UnmarshalJSON(data []byte) error {
	decoded, err := DecodeValue(data)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

// MarshalJSON implements json.Marshaler with an exhaustive switch on the
// variant tag. An out-of-range tag is a programming error surfaced as an
// ENCODE_ERROR, never silently skipped.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindInt:
		return json.Marshal(v.i)
	case KindFloat:
		return json.Marshal(v.f)
	case KindString:
		return json.Marshal(v.s)
	case KindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	case KindMap:
		if v.obj == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.obj)
	}
	return nil, NewEncodeError(fmt.Sprintf("value: unknown kind %d", int(v.kind)))
}
