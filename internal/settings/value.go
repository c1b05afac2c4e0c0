// Package settings holds the option editor, the persistence gateway contract
// and a caching store that tracks in-flight requests against that gateway.
package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"sort"
	"strconv"
)

// Kind is the scalar type carried by a Value.
type Kind string

const (
	KindString Kind = "string"
	KindBool   Kind = "bool"
)

// Value is a single option value: a bool or a string.
type Value struct {
	kind Kind
	b    bool
	s    string
}

// Bool returns a bool Value.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// String returns a string Value.
func String(s string) Value {
	return Value{kind: KindString, s: s}
}

// Kind reports the value's scalar type. The zero Value is a string.
func (v Value) Kind() Kind {
	if v.kind == "" {
		return KindString
	}
	return v.kind
}

// IsBool reports whether v holds a bool.
func (v Value) IsBool() bool { return v.kind == KindBool }

// Bool returns the bool value and whether v holds one.
func (v Value) Bool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// Str returns the string value and whether v holds one.
func (v Value) Str() (string, bool) {
	return v.s, v.Kind() == KindString
}

// String formats v for display.
func (v Value) String() string {
	if v.kind == KindBool {
		return strconv.FormatBool(v.b)
	}
	return v.s
}

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.Kind() != o.Kind() {
		return false
	}
	if v.kind == KindBool {
		return v.b == o.b
	}
	return v.s == o.s
}

// MarshalJSON encodes v as a JSON bool or string.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindBool {
		return json.Marshal(v.b)
	}
	return json.Marshal(v.s)
}

// UnmarshalJSON accepts a JSON bool or string. Numbers are kept as their
// literal text so select controls with numeric options survive a round trip.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("true")):
		*v = Bool(true)
	case bytes.Equal(data, []byte("false")):
		*v = Bool(false)
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
	case len(data) > 0 && (data[0] == '-' || (data[0] >= '0' && data[0] <= '9')):
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*v = String(n.String())
	default:
		return fmt.Errorf("option value must be a bool or string, got %s", data)
	}
	return nil
}

// ParseValue converts text into a Value of the given kind.
func ParseValue(kind Kind, text string) (Value, error) {
	if kind == KindBool {
		b, err := strconv.ParseBool(text)
		if err != nil {
			return Value{}, fmt.Errorf("invalid bool value %q (use true/false/1/0)", text)
		}
		return Bool(b), nil
	}
	return String(text), nil
}

// Options maps option names to values.
type Options map[string]Value

// Clone returns a shallow copy. A nil map clones to an empty one.
func (o Options) Clone() Options {
	out := make(Options, len(o))
	maps.Copy(out, o)
	return out
}

// Names returns the option names in sorted order.
func (o Options) Names() []string {
	names := make([]string, 0, len(o))
	for name := range o {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
