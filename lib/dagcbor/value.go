// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dagcbor

import (
	"bytes"
	"math"

	"github.com/bureau-foundation/skystream/lib/cid"
)

// Kind discriminates the concrete type of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindBytes
	KindText
	KindArray
	KindMap
	KindLink
)

var kindNames = [...]string{
	KindNull:  "null",
	KindBool:  "bool",
	KindInt:   "int",
	KindFloat: "float",
	KindBytes: "bytes",
	KindText:  "text",
	KindArray: "array",
	KindMap:   "map",
	KindLink:  "link",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is one node of a decoded tree. The set of implementations is
// closed; switch on the concrete type or on Kind.
type Value interface {
	Kind() Kind
	value()
}

type (
	Null  struct{}
	Bool  bool
	Int   int64
	Float float64
	Bytes []byte
	Text  string
	Array []Value

	// Map is an ordered sequence of entries with unique text keys.
	Map []Entry

	// Link is a tag-42 content identifier.
	Link struct{ CID cid.CID }
)

// Entry is one key/value pair of a Map.
type Entry struct {
	Key   string
	Value Value
}

func (Null) Kind() Kind  { return KindNull }
func (Bool) Kind() Kind  { return KindBool }
func (Int) Kind() Kind   { return KindInt }
func (Float) Kind() Kind { return KindFloat }
func (Bytes) Kind() Kind { return KindBytes }
func (Text) Kind() Kind  { return KindText }
func (Array) Kind() Kind { return KindArray }
func (Map) Kind() Kind   { return KindMap }
func (Link) Kind() Kind  { return KindLink }

func (Null) value()  {}
func (Bool) value()  {}
func (Int) value()   {}
func (Float) value() {}
func (Bytes) value() {}
func (Text) value()  {}
func (Array) value() {}
func (Map) value()   {}
func (Link) value()  {}

// Get returns the value stored under key.
func (m Map) Get(key string) (Value, bool) {
	for _, entry := range m {
		if entry.Key == key {
			return entry.Value, true
		}
	}
	return nil, false
}

// Text returns the text value under key. The second result is false
// when the key is absent or holds another kind.
func (m Map) Text(key string) (string, bool) {
	if v, ok := m.Get(key); ok {
		if text, ok := v.(Text); ok {
			return string(text), true
		}
	}
	return "", false
}

// Int returns the integer value under key.
func (m Map) Int(key string) (int64, bool) {
	if v, ok := m.Get(key); ok {
		if n, ok := v.(Int); ok {
			return int64(n), true
		}
	}
	return 0, false
}

// Bool returns the boolean value under key.
func (m Map) Bool(key string) (bool, bool) {
	if v, ok := m.Get(key); ok {
		if b, ok := v.(Bool); ok {
			return bool(b), true
		}
	}
	return false, false
}

// Bytes returns the byte string under key.
func (m Map) Bytes(key string) ([]byte, bool) {
	if v, ok := m.Get(key); ok {
		if b, ok := v.(Bytes); ok {
			return []byte(b), true
		}
	}
	return nil, false
}

// Array returns the array under key.
func (m Map) Array(key string) (Array, bool) {
	if v, ok := m.Get(key); ok {
		if a, ok := v.(Array); ok {
			return a, true
		}
	}
	return nil, false
}

// Map returns the nested map under key.
func (m Map) Map(key string) (Map, bool) {
	if v, ok := m.Get(key); ok {
		if nested, ok := v.(Map); ok {
			return nested, true
		}
	}
	return nil, false
}

// Link returns the CID linked under key.
func (m Map) Link(key string) (cid.CID, bool) {
	if v, ok := m.Get(key); ok {
		if link, ok := v.(Link); ok {
			return link.CID, true
		}
	}
	return cid.CID{}, false
}

// IsNull reports whether v is nil or Null. An absent optional field
// and an explicit null read the same to most callers.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// Equal reports whether a and b are the same logical value. Map entry
// order is ignored; floats compare by bit pattern so 0 and -0 differ
// the way their encodings do.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch a := a.(type) {
	case Null:
		return true
	case Bool:
		return a == b.(Bool)
	case Int:
		return a == b.(Int)
	case Float:
		return math.Float64bits(float64(a)) == math.Float64bits(float64(b.(Float)))
	case Bytes:
		return bytes.Equal(a, b.(Bytes))
	case Text:
		return a == b.(Text)
	case Link:
		return a.CID == b.(Link).CID
	case Array:
		other := b.(Array)
		if len(a) != len(other) {
			return false
		}
		for i := range a {
			if !Equal(a[i], other[i]) {
				return false
			}
		}
		return true
	case Map:
		other := b.(Map)
		if len(a) != len(other) {
			return false
		}
		for _, entry := range a {
			match, ok := other.Get(entry.Key)
			if !ok || !Equal(entry.Value, match) {
				return false
			}
		}
		return true
	}
	return false
}
