package types

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/iancoleman/orderedmap"
)

// Object is a JSON object that remembers the order its keys arrived in.
// Nested objects decode as *Object, arrays as []any and numbers as float64.
type Object struct {
	m *orderedmap.OrderedMap
}

// NewObject returns an empty Object
func NewObject() *Object {
	return &Object{m: newMap()}
}

func newMap() *orderedmap.OrderedMap {
	m := orderedmap.New()
	m.SetEscapeHTML(false)
	return m
}

// Set stores v under key. A key that already exists keeps its position.
func (o *Object) Set(key string, v any) {
	if o.m == nil {
		o.m = newMap()
	}
	o.m.Set(key, v)
}

// Get returns the value stored under key
func (o *Object) Get(key string) (any, bool) {
	if o == nil || o.m == nil {
		return nil, false
	}
	return o.m.Get(key)
}

// Keys returns the keys in insertion order
func (o *Object) Keys() []string {
	if o == nil || o.m == nil {
		return nil
	}
	keys := o.m.Keys()
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

func (o *Object) Len() int {
	if o == nil || o.m == nil {
		return 0
	}
	return len(o.m.Keys())
}

// ParseObject decodes data, which must hold a JSON object
func ParseObject(data []byte) (*Object, error) {
	v, err := DecodeValue(data)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(*Object)
	if !ok {
		return nil, fmt.Errorf("expected JSON object, got %T", v)
	}
	return obj, nil
}

// DecodeValue decodes any JSON document, keeping object key order
func DecodeValue(data []byte) (any, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	// orderedmap only decodes objects, so scalars and arrays ride in a wrapper.
	wrapped := make([]byte, 0, len(raw)+6)
	wrapped = append(wrapped, `{"v":`...)
	wrapped = append(wrapped, raw...)
	wrapped = append(wrapped, '}')

	m := newMap()
	if err := m.UnmarshalJSON(wrapped); err != nil {
		return nil, err
	}
	v, _ := m.Get("v")
	return fromOrdered(v), nil
}

// fromOrdered swaps the decoder's map values for *Object, recursively
func fromOrdered(v any) any {
	switch t := v.(type) {
	case orderedmap.OrderedMap:
		return objectFrom(&t)
	case *orderedmap.OrderedMap:
		return objectFrom(t)
	case []any:
		for i := range t {
			t[i] = fromOrdered(t[i])
		}
		return t
	}
	return v
}

func objectFrom(m *orderedmap.OrderedMap) *Object {
	obj := NewObject()
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		obj.Set(k, fromOrdered(v))
	}
	return obj
}

func (o *Object) UnmarshalJSON(data []byte) error {
	obj, err := ParseObject(data)
	if err != nil {
		return err
	}
	*o = *obj
	return nil
}

func (o *Object) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	if o.m == nil {
		return []byte("{}"), nil
	}
	raw, err := o.m.MarshalJSON()
	if err != nil {
		return nil, err
	}
	// The map encoder leaves a newline after every token.
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
