// Package models defines the data flowing through a fetchcsv run: the
// parsed JSON document (Value) and the tabular rows derived from it (Row).
//
// Value is a tagged variant. Code that needs to branch on the shape of a
// document switches on Kind instead of inspecting dynamic Go types.
package models

import (
	"strconv"

	"github.com/ajitpratap0/fetchcsv/pkg/json"
)

// Kind identifies which variant a Value holds
type Kind uint8

const (
	// KindNull is the JSON null literal
	KindNull Kind = iota
	// KindBool is true or false
	KindBool
	// KindNumber is a number kept as its literal text
	KindNumber
	// KindString is a JSON string
	KindString
	// KindArray is an ordered sequence of values
	KindArray
	// KindObject is an ordered mapping of member names to values
	KindObject
)

// String returns the lowercase JSON name of the kind
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is one JSON value. The zero Value is null.
type Value struct {
	kind   Kind
	b      bool
	text   string // string content or number literal
	items  []Value
	object *Object
}

// Null returns the null value
func Null() Value { return Value{} }

// Bool returns a boolean value
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a number value from its literal text, e.g. "1.50"
func Number(literal string) Value { return Value{kind: KindNumber, text: literal} }

// Int returns a number value for an integer
func Int(n int64) Value { return Number(strconv.FormatInt(n, 10)) }

// String returns a string value
func String(s string) Value { return Value{kind: KindString, text: s} }

// Array returns an array value holding items in order
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, items: items}
}

// ObjectOf returns an object value. A nil object is an empty object.
func ObjectOf(o *Object) Value {
	if o == nil {
		o = NewObject()
	}
	return Value{kind: KindObject, object: o}
}

// Kind returns the variant tag
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the boolean payload; false for other kinds
func (v Value) Bool() bool { return v.b }

// Text returns the string content or number literal; empty for other kinds
func (v Value) Text() string { return v.text }

// Items returns the array elements; nil for other kinds
func (v Value) Items() []Value { return v.items }

// Object returns the object payload; nil for other kinds
func (v Value) Object() *Object { return v.object }

// AppendJSON appends the compact JSON text of v to dst
func (v Value) AppendJSON(dst []byte) []byte {
	switch v.kind {
	case KindBool:
		return strconv.AppendBool(dst, v.b)
	case KindNumber:
		return append(dst, v.text...)
	case KindString:
		return json.AppendString(dst, v.text)
	case KindArray:
		dst = append(dst, '[')
		for i, item := range v.items {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = item.AppendJSON(dst)
		}
		return append(dst, ']')
	case KindObject:
		dst = append(dst, '{')
		for i, key := range v.object.keys {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = json.AppendString(dst, key)
			dst = append(dst, ':')
			dst = v.object.values[key].AppendJSON(dst)
		}
		return append(dst, '}')
	default:
		return append(dst, "null"...)
	}
}

// CompactJSON returns the compact JSON text of v
func (v Value) CompactJSON() string {
	return string(v.AppendJSON(nil))
}

// MarshalJSON implements json.Marshaler
func (v Value) MarshalJSON() ([]byte, error) {
	return v.AppendJSON(nil), nil
}

// CellText is the CSV rendering of v: strings pass through unchanged,
// everything else is its compact JSON text.
func (v Value) CellText() string {
	if v.kind == KindString {
		return v.text
	}
	return v.CompactJSON()
}

// Object is an ordered set of members. Setting an existing key replaces
// its value but keeps its original position.
type Object struct {
	keys   []string
	values map[string]Value
}

// NewObject returns an empty object
func NewObject() *Object {
	return &Object{values: make(map[string]Value)}
}

// Set stores value under key
func (o *Object) Set(key string, value Value) *Object {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
	return o
}

// Get returns the value stored under key
func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Keys returns member names in order
func (o *Object) Keys() []string {
	keys := make([]string, len(o.keys))
	copy(keys, o.keys)
	return keys
}

// Len returns the number of members
func (o *Object) Len() int { return len(o.keys) }
