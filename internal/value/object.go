// Package value holds the result values produced by query execution.
//
// A result value is one of: nil (GraphQL null), a Go scalar (bool, string,
// integer and float types, json.Number), an Enum, a []any list or an *Object.
package value

import (
	"bytes"
	"encoding/json"
	"reflect"
	"slices"
)

// Enum is a resolved enum value, rendered as its symbolic name.
type Enum string

// Object is a string keyed map that remembers insertion order.
type Object struct {
	keys []string
	m    map[string]any
}

func NewObject() *Object {
	return &Object{m: make(map[string]any)}
}

// ObjectOf builds an object from alternating key/value arguments.
func ObjectOf(kv ...any) *Object {
	o := NewObject()
	for i := 0; i+1 < len(kv); i += 2 {
		o.Set(kv[i].(string), kv[i+1])
	}
	return o
}

func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return slices.Clone(o.keys)
}

func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.m[key]
	return v, ok
}

// Set stores v under key. Overwriting keeps the original position.
func (o *Object) Set(key string, v any) {
	if _, ok := o.m[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.m[key] = v
}

// Delete removes key and returns the value it held.
func (o *Object) Delete(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.m[key]
	if !ok {
		return nil, false
	}
	delete(o.m, key)
	if i := slices.Index(o.keys, key); i >= 0 {
		o.keys = slices.Delete(o.keys, i, i+1)
	}
	return v, true
}

// Merge copies every entry of other into o.
func (o *Object) Merge(other *Object) {
	for _, k := range other.Keys() {
		o.Set(k, other.m[k])
	}
}

// Clone returns a deep copy.
func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}
	c := &Object{keys: slices.Clone(o.keys), m: make(map[string]any, len(o.m))}
	for k, v := range o.m {
		c.m[k] = Clone(v)
	}
	return c
}

// Equal compares keys, key order and values.
func (o *Object) Equal(other *Object) bool {
	if o == nil || other == nil {
		return o == other
	}
	if !slices.Equal(o.keys, other.keys) {
		return false
	}
	for _, k := range o.keys {
		if !Equal(o.m[k], other.m[k]) {
			return false
		}
	}
	return true
}

func (o *Object) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(o.m[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Clone deep copies objects and lists. Scalars are returned as is.
func Clone(v any) any {
	switch t := v.(type) {
	case *Object:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Clone(e)
		}
		return out
	default:
		return v
	}
}

// Equal reports deep equality of two result values.
func Equal(a, b any) bool {
	switch x := a.(type) {
	case *Object:
		y, ok := b.(*Object)
		return ok && x.Equal(y)
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}
