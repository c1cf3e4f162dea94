// Package modelcore implements the value interchange layer, model
// registry, and FIFO scheduler that sit in front of a native inference
// engine.
package modelcore

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Kind discriminates the variants of Value. It doubles as the JSON
// wire tag used by MarshalJSON/UnmarshalJSON.
type Kind string

const (
	KindNone     Kind = "None"
	KindBool     Kind = "Bool"
	KindInt      Kind = "Int"
	KindDouble   Kind = "Double"
	KindStr      Kind = "Str"
	KindTuple    Kind = "Tuple"
	KindList     Kind = "List"
	KindOptional Kind = "Optional"
	KindTensor   Kind = "TensorNPYBase64"
)

// Value is the neutral, tagged, serialisable datatype exchanged with
// callers. Only the fields relevant to Kind are populated; the zero
// Value is KindNone.
type Value struct {
	Kind   Kind
	bool   bool
	int    int64
	double float64
	str    string
	items  []Value // Tuple, List
	opt    *Value  // Optional; nil means Optional(None)
	tensor string  // base64-encoded NPY stream
}

// None returns the None value.
func None() Value { return Value{Kind: KindNone} }

// Bool returns a Bool value.
func Bool(b bool) Value { return Value{Kind: KindBool, bool: b} }

// Int returns an Int value.
func Int(i int64) Value { return Value{Kind: KindInt, int: i} }

// Double returns a Double value.
func Double(d float64) Value { return Value{Kind: KindDouble, double: d} }

// Str returns a Str value.
func Str(s string) Value { return Value{Kind: KindStr, str: s} }

// Tuple returns a Tuple value wrapping items.
func Tuple(items ...Value) Value { return Value{Kind: KindTuple, items: items} }

// List returns a List value wrapping items.
func List(items ...Value) Value { return Value{Kind: KindList, items: items} }

// OptionalNone returns Optional(None).
func OptionalNone() Value { return Value{Kind: KindOptional, opt: nil} }

// OptionalSome returns Optional(Some(v)).
func OptionalSome(v Value) Value { return Value{Kind: KindOptional, opt: &v} }

// TensorNpyB64 returns a TensorNpyB64 value carrying the base64
// encoding of a complete NPY byte stream.
func TensorNpyB64(b64 string) Value { return Value{Kind: KindTensor, tensor: b64} }

// BoolValue returns the wrapped bool; callers must check Kind first.
func (v Value) BoolValue() bool { return v.bool }

// IntValue returns the wrapped int64; callers must check Kind first.
func (v Value) IntValue() int64 { return v.int }

// DoubleValue returns the wrapped float64; callers must check Kind first.
func (v Value) DoubleValue() float64 { return v.double }

// StrValue returns the wrapped string; callers must check Kind first.
func (v Value) StrValue() string { return v.str }

// Items returns the elements of a Tuple or List value.
func (v Value) Items() []Value { return v.items }

// OptionalValue returns the wrapped Optional payload, or nil if
// Optional(None).
func (v Value) OptionalValue() *Value { return v.opt }

// TensorPayload returns the base64 NPY payload of a TensorNpyB64 value.
func (v Value) TensorPayload() string { return v.tensor }

// Equal reports structural equality per spec.md §3: Double compares
// bit-for-bit, Optional(None) is distinct from top-level None (they
// are only made equivalent by ToEngine), and List/Tuple compare
// element-wise.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindNone:
		return true
	case KindBool:
		return v.bool == other.bool
	case KindInt:
		return v.int == other.int
	case KindDouble:
		return math.Float64bits(v.double) == math.Float64bits(other.double)
	case KindStr:
		return v.str == other.str
	case KindTuple, KindList:
		if len(v.items) != len(other.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(other.items[i]) {
				return false
			}
		}
		return true
	case KindOptional:
		if (v.opt == nil) != (other.opt == nil) {
			return false
		}
		if v.opt == nil {
			return true
		}
		return v.opt.Equal(*other.opt)
	case KindTensor:
		return v.tensor == other.tensor
	default:
		return false
	}
}

// String renders a compact debug form, used in log lines and test
// failure messages.
func (v Value) String() string {
	switch v.Kind {
	case KindNone:
		return "None"
	case KindBool:
		return fmt.Sprintf("Bool(%t)", v.bool)
	case KindInt:
		return fmt.Sprintf("Int(%d)", v.int)
	case KindDouble:
		return fmt.Sprintf("Double(%v)", v.double)
	case KindStr:
		return fmt.Sprintf("Str(%q)", v.str)
	case KindTuple, KindList:
		parts := make([]string, len(v.items))
		for i, it := range v.items {
			parts[i] = it.String()
		}
		return fmt.Sprintf("%s[%s]", v.Kind, strings.Join(parts, ", "))
	case KindOptional:
		if v.opt == nil {
			return "Optional(None)"
		}
		return fmt.Sprintf("Optional(%s)", v.opt.String())
	case KindTensor:
		return fmt.Sprintf("TensorNpyB64(%d bytes b64)", len(v.tensor))
	default:
		return "Invalid"
	}
}

// MarshalJSON renders the tagged-object wire format of spec.md §6:
// {"<Tag>": payload}.
func (v Value) MarshalJSON() ([]byte, error) {
	var payload any
	switch v.Kind {
	case KindNone:
		payload = nil
	case KindBool:
		payload = v.bool
	case KindInt:
		payload = v.int
	case KindDouble:
		payload = v.double
	case KindStr:
		payload = v.str
	case KindTuple, KindList:
		if v.items == nil {
			payload = []Value{}
		} else {
			payload = v.items
		}
	case KindOptional:
		if v.opt == nil {
			payload = nil
		} else {
			payload = *v.opt
		}
	case KindTensor:
		payload = v.tensor
	default:
		return nil, fmt.Errorf("modelcore: cannot marshal Value with invalid kind %q", v.Kind)
	}
	return json.Marshal(map[string]any{string(v.Kind): payload})
}

// UnmarshalJSON parses the tagged-object wire format of spec.md §6.
func (v *Value) UnmarshalJSON(data []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("modelcore: Value is not a tagged object: %w", err)
	}
	if len(obj) != 1 {
		return fmt.Errorf("modelcore: Value tagged object must have exactly one key, got %d", len(obj))
	}
	for tag, raw := range obj {
		switch Kind(tag) {
		case KindNone:
			*v = None()
		case KindBool:
			var b bool
			if err := json.Unmarshal(raw, &b); err != nil {
				return fmt.Errorf("modelcore: Bool payload: %w", err)
			}
			*v = Bool(b)
		case KindInt:
			var i int64
			if err := json.Unmarshal(raw, &i); err != nil {
				return fmt.Errorf("modelcore: Int payload: %w", err)
			}
			*v = Int(i)
		case KindDouble:
			var d float64
			if err := json.Unmarshal(raw, &d); err != nil {
				return fmt.Errorf("modelcore: Double payload: %w", err)
			}
			*v = Double(d)
		case KindStr:
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return fmt.Errorf("modelcore: Str payload: %w", err)
			}
			*v = Str(s)
		case KindTuple:
			items, err := unmarshalValueList(raw)
			if err != nil {
				return fmt.Errorf("modelcore: Tuple payload: %w", err)
			}
			*v = Tuple(items...)
		case KindList:
			items, err := unmarshalValueList(raw)
			if err != nil {
				return fmt.Errorf("modelcore: List payload: %w", err)
			}
			*v = List(items...)
		case KindOptional:
			if string(raw) == "null" {
				*v = OptionalNone()
				return nil
			}
			var inner Value
			if err := json.Unmarshal(raw, &inner); err != nil {
				return fmt.Errorf("modelcore: Optional payload: %w", err)
			}
			*v = OptionalSome(inner)
		case KindTensor:
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return fmt.Errorf("modelcore: TensorNPYBase64 payload: %w", err)
			}
			*v = TensorNpyB64(s)
		default:
			return fmt.Errorf("modelcore: unknown Value tag %q", tag)
		}
		return nil
	}
	return nil
}

func unmarshalValueList(raw json.RawMessage) ([]Value, error) {
	var items []Value
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Input is the ordered positional-argument bundle sent to a Graph.
type Input struct {
	PositionalArguments []Value `json:"positional_arguments"`
}

// NewInput builds an Input from the given positional arguments.
func NewInput(args ...Value) Input {
	return Input{PositionalArguments: args}
}

// Equal reports whether two Inputs have the same length and
// pointwise-equal arguments.
func (i Input) Equal(other Input) bool {
	if len(i.PositionalArguments) != len(other.PositionalArguments) {
		return false
	}
	for idx := range i.PositionalArguments {
		if !i.PositionalArguments[idx].Equal(other.PositionalArguments[idx]) {
			return false
		}
	}
	return true
}
