// Package jsonx provides a typed JSON value tree and recovery helpers for
// JSON embedded in model output.
package jsonx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Member is a single key/value pair of an object. Order is preserved.
type Member struct {
	Key   string
	Value Value
}

// Value is a tagged-union JSON document node.
type Value struct {
	Kind Kind
	Bool bool
	Num  json.Number
	Str  string
	Arr  []Value
	Obj  []Member
}

// Constructors.

func Null() Value            { return Value{Kind: KindNull} }
func String(s string) Value  { return Value{Kind: KindString, Str: s} }
func Boolean(b bool) Value   { return Value{Kind: KindBool, Bool: b} }
func Array(vs ...Value) Value { return Value{Kind: KindArray, Arr: vs} }

// Number creates a numeric value from its JSON text representation.
func Number(text string) Value {
	return Value{Kind: KindNumber, Num: json.Number(text)}
}

// Object creates an object value from ordered members.
func Object(members ...Member) Value {
	return Value{Kind: KindObject, Obj: members}
}

// Get returns the member value for key on an object.
func (v Value) Get(key string) (Value, bool) {
	if v.Kind != KindObject {
		return Value{}, false
	}
	for _, m := range v.Obj {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Set replaces or appends a member on an object, returning the updated value.
func (v Value) Set(key string, val Value) Value {
	if v.Kind != KindObject {
		return v
	}
	out := Value{Kind: KindObject, Obj: make([]Member, len(v.Obj))}
	copy(out.Obj, v.Obj)
	for i, m := range out.Obj {
		if m.Key == key {
			out.Obj[i].Value = val
			return out
		}
	}
	out.Obj = append(out.Obj, Member{Key: key, Value: val})
	return out
}

// IsEmpty reports whether the value carries no content: null, empty string,
// empty array, or empty object. Booleans and numbers always carry content.
func (v Value) IsEmpty() bool {
	switch v.Kind {
	case KindNull:
		return true
	case KindString:
		return v.Str == ""
	case KindArray:
		return len(v.Arr) == 0
	case KindObject:
		return len(v.Obj) == 0
	default:
		return false
	}
}

// Walk visits v and all descendants depth-first.
func (v Value) Walk(fn func(Value)) {
	fn(v)
	switch v.Kind {
	case KindArray:
		for _, item := range v.Arr {
			item.Walk(fn)
		}
	case KindObject:
		for _, m := range v.Obj {
			m.Value.Walk(fn)
		}
	}
}

// LeafStats counts scalar leaves beneath v and how many of them are empty.
// An empty array or object counts as a single empty leaf.
func (v Value) LeafStats() (total, empty int) {
	switch v.Kind {
	case KindArray:
		if len(v.Arr) == 0 {
			return 1, 1
		}
		for _, item := range v.Arr {
			t, e := item.LeafStats()
			total += t
			empty += e
		}
	case KindObject:
		if len(v.Obj) == 0 {
			return 1, 1
		}
		for _, m := range v.Obj {
			t, e := m.Value.LeafStats()
			total += t
			empty += e
		}
	default:
		total = 1
		if v.IsEmpty() {
			empty = 1
		}
	}
	return total, empty
}

// Decode parses JSON bytes into a Value, preserving object key order.
func Decode(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, err
	}

	// Reject trailing content after the document.
	if _, err := dec.Token(); err == nil {
		return Value{}, fmt.Errorf("unexpected trailing content after JSON document")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, fmt.Errorf("failed to read JSON token: %w", err)
	}
	return decodeFromToken(dec, tok)
}

func decodeFromToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Boolean(t), nil
	case json.Number:
		return Value{Kind: KindNumber, Num: t}, nil
	case string:
		return String(t), nil
	case json.Delim:
		switch t {
		case '[':
			arr := Value{Kind: KindArray}
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				arr.Arr = append(arr.Arr, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, fmt.Errorf("unterminated JSON array: %w", err)
			}
			return arr, nil
		case '{':
			obj := Value{Kind: KindObject}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, fmt.Errorf("failed to read object key: %w", err)
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("object key is not a string: %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				obj.Obj = append(obj.Obj, Member{Key: key, Value: val})
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, fmt.Errorf("unterminated JSON object: %w", err)
			}
			return obj, nil
		}
	}
	return Value{}, fmt.Errorf("unexpected JSON token: %v", tok)
}

// MarshalJSON encodes the value back to JSON, preserving object key order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeValue(buf *bytes.Buffer, v Value) error {
	switch v.Kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		if v.Bool {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindNumber:
		if v.Num == "" {
			buf.WriteString("0")
		} else {
			buf.WriteString(v.Num.String())
		}
	case KindString:
		b, err := json.Marshal(v.Str)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.Arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeValue(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, m := range v.Obj {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(m.Key)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := encodeValue(buf, m.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("cannot encode value of kind %d", v.Kind)
	}
	return nil
}

// Keys returns the object's member keys in sorted order. Useful in tests.
func (v Value) Keys() []string {
	if v.Kind != KindObject {
		return nil
	}
	keys := make([]string, 0, len(v.Obj))
	for _, m := range v.Obj {
		keys = append(keys, m.Key)
	}
	sort.Strings(keys)
	return keys
}
