// Package jsonvalue holds an ordered, precision-preserving JSON value model
// and the strict parser that produces it.
package jsonvalue

import (
	"encoding/json"
	"slices"
)

// Kind identifies the JSON type of a Value.
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	}
	return "unknown"
}

// Member is one key/value entry of an object.
type Member struct {
	Key   string
	Value Value
}

// Value is an immutable JSON value. Objects keep insertion order and numbers
// keep the exact text they were parsed from.
type Value struct {
	kind    Kind
	b       bool
	s       string // number text or string contents
	items   []Value
	members []Member
}

func NullValue() Value { return Value{kind: Null} }

func BoolValue(b bool) Value { return Value{kind: Bool, b: b} }

func NumberValue(n json.Number) Value { return Value{kind: Number, s: string(n)} }

func StringValue(s string) Value { return Value{kind: String, s: s} }

func ArrayValue(items ...Value) Value {
	return Value{kind: Array, items: slices.Clone(items)}
}

// ObjectValue builds an object from members in order. A repeated key keeps the
// position of its first occurrence and takes the last value.
func ObjectValue(members ...Member) Value {
	b := newObjectBuilder()
	for _, m := range members {
		b.set(m.Key, m.Value)
	}
	return b.value()
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) Bool() bool { return v.b }

func (v Value) Number() json.Number { return json.Number(v.s) }

// Str returns the contents of a String value.
func (v Value) Str() string { return v.s }

// Items returns a copy of an array's elements.
func (v Value) Items() []Value { return slices.Clone(v.items) }

// Members returns a copy of an object's entries in order.
func (v Value) Members() []Member { return slices.Clone(v.members) }

// Len is the entry count of an array or object, and 0 for scalars.
func (v Value) Len() int {
	switch v.kind {
	case Array:
		return len(v.items)
	case Object:
		return len(v.members)
	}
	return 0
}

func (v Value) IsContainer() bool { return v.kind == Array || v.kind == Object }

// Get looks up a key in an object.
func (v Value) Get(key string) (Value, bool) {
	for _, m := range v.members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Equal reports structural equality. Numbers compare by their parsed float
// value when both parse, and by text otherwise.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Null:
		return true
	case Bool:
		return a.b == b.b
	case Number:
		af, aerr := json.Number(a.s).Float64()
		bf, berr := json.Number(b.s).Float64()
		if aerr == nil && berr == nil {
			return af == bf
		}
		return a.s == b.s
	case String:
		return a.s == b.s
	case Array:
		return slices.EqualFunc(a.items, b.items, Equal)
	case Object:
		return slices.EqualFunc(a.members, b.members, func(x, y Member) bool {
			return x.Key == y.Key && Equal(x.Value, y.Value)
		})
	}
	return false
}

type objectBuilder struct {
	members []Member
	index   map[string]int
}

func newObjectBuilder() *objectBuilder {
	return &objectBuilder{index: map[string]int{}}
}

func (o *objectBuilder) set(key string, v Value) {
	if i, ok := o.index[key]; ok {
		o.members[i].Value = v
		return
	}
	o.index[key] = len(o.members)
	o.members = append(o.members, Member{Key: key, Value: v})
}

func (o *objectBuilder) value() Value {
	return Value{kind: Object, members: o.members}
}
