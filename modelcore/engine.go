package modelcore

import "fmt"

// EngineKind discriminates the variants of EngineValue. It mirrors the
// shape of the value union used by the underlying native inference
// runtime (see original_source/lightray_core/src/lightray_torch/core.rs's
// IValue), which is a superset of Value: it additionally carries
// homogeneous primitive list variants that FromEngine demotes to a
// generic List of tagged elements.
type EngineKind string

const (
	EngineNone        EngineKind = "None"
	EngineBool        EngineKind = "Bool"
	EngineInt         EngineKind = "Int"
	EngineDouble      EngineKind = "Double"
	EngineString      EngineKind = "String"
	EngineTuple       EngineKind = "Tuple"
	EngineGenericList EngineKind = "GenericList"
	EngineDoubleList  EngineKind = "DoubleList"
	EngineIntList     EngineKind = "IntList"
	EngineBoolList    EngineKind = "BoolList"
	EngineTensor      EngineKind = "Tensor"
	EngineDict        EngineKind = "Dict" // unsupported; round-tripping not required
)

// EngineValue is the opaque value representation exchanged with the
// native inference engine.
type EngineValue struct {
	Kind    EngineKind
	b       bool
	i       int64
	d       float64
	s       string
	items   []EngineValue // Tuple, GenericList
	doubles []float64     // DoubleList
	ints    []int64       // IntList
	bools   []bool        // BoolList
	tensor  *Tensor       // Tensor
}

func EngineNoneValue() EngineValue { return EngineValue{Kind: EngineNone} }
func EngineBoolValue(b bool) EngineValue { return EngineValue{Kind: EngineBool, b: b} }
func EngineIntValue(i int64) EngineValue { return EngineValue{Kind: EngineInt, i: i} }
func EngineDoubleValue(d float64) EngineValue { return EngineValue{Kind: EngineDouble, d: d} }
func EngineStringValue(s string) EngineValue { return EngineValue{Kind: EngineString, s: s} }
func EngineTupleValue(items ...EngineValue) EngineValue {
	return EngineValue{Kind: EngineTuple, items: items}
}
func EngineGenericListValue(items ...EngineValue) EngineValue {
	return EngineValue{Kind: EngineGenericList, items: items}
}
func EngineDoubleListValue(ds []float64) EngineValue {
	return EngineValue{Kind: EngineDoubleList, doubles: ds}
}
func EngineIntListValue(is []int64) EngineValue {
	return EngineValue{Kind: EngineIntList, ints: is}
}
func EngineBoolListValue(bs []bool) EngineValue {
	return EngineValue{Kind: EngineBoolList, bools: bs}
}
func EngineTensorValue(t Tensor) EngineValue { return EngineValue{Kind: EngineTensor, tensor: &t} }

func (e EngineValue) BoolValue() bool         { return e.b }
func (e EngineValue) IntValue() int64         { return e.i }
func (e EngineValue) DoubleValue() float64    { return e.d }
func (e EngineValue) StringValue() string     { return e.s }
func (e EngineValue) Items() []EngineValue    { return e.items }
func (e EngineValue) Doubles() []float64      { return e.doubles }
func (e EngineValue) Ints() []int64           { return e.ints }
func (e EngineValue) Bools() []bool           { return e.bools }
func (e EngineValue) TensorValue() Tensor     { return *e.tensor }

// ToEngine converts a Value into the engine's value representation.
// It is total over the tags Value supports: the only failure mode is
// a malformed TensorNpyB64 payload.
func ToEngine(v Value) (EngineValue, error) {
	switch v.Kind {
	case KindNone:
		return EngineNoneValue(), nil
	case KindBool:
		return EngineBoolValue(v.BoolValue()), nil
	case KindInt:
		return EngineIntValue(v.IntValue()), nil
	case KindDouble:
		return EngineDoubleValue(v.DoubleValue()), nil
	case KindStr:
		return EngineStringValue(v.StrValue()), nil
	case KindTuple:
		items, err := toEngineList(v.Items())
		if err != nil {
			return EngineValue{}, err
		}
		return EngineTupleValue(items...), nil
	case KindList:
		items, err := toEngineList(v.Items())
		if err != nil {
			return EngineValue{}, err
		}
		return EngineGenericListValue(items...), nil
	case KindOptional:
		if v.OptionalValue() == nil {
			return EngineNoneValue(), nil
		}
		return ToEngine(*v.OptionalValue())
	case KindTensor:
		tensor, err := DecodeNPYBase64(v.TensorPayload())
		if err != nil {
			return EngineValue{}, fmt.Errorf("modelcore: ToEngine: %w", err)
		}
		return EngineTensorValue(tensor), nil
	default:
		return EngineValue{}, fmt.Errorf("modelcore: ToEngine: unsupported Value kind %q", v.Kind)
	}
}

func toEngineList(values []Value) ([]EngineValue, error) {
	out := make([]EngineValue, len(values))
	for i, item := range values {
		converted, err := ToEngine(item)
		if err != nil {
			return nil, err
		}
		out[i] = converted
	}
	return out, nil
}

// FromEngine converts an engine value back into a Value. Homogeneous
// primitive engine lists (DoubleList/IntList/BoolList) demote to
// List(List<Value>) whose elements carry the appropriate primitive
// tag, per spec.md §4.1. Dict and other unsupported engine variants
// return an error; the spec does not require their round-tripping.
func FromEngine(e EngineValue) (Value, error) {
	switch e.Kind {
	case EngineNone:
		return None(), nil
	case EngineBool:
		return Bool(e.BoolValue()), nil
	case EngineInt:
		return Int(e.IntValue()), nil
	case EngineDouble:
		return Double(e.DoubleValue()), nil
	case EngineString:
		return Str(e.StringValue()), nil
	case EngineTuple:
		items, err := fromEngineList(e.Items())
		if err != nil {
			return Value{}, err
		}
		return Tuple(items...), nil
	case EngineGenericList:
		items, err := fromEngineList(e.Items())
		if err != nil {
			return Value{}, err
		}
		return List(items...), nil
	case EngineDoubleList:
		items := make([]Value, len(e.Doubles()))
		for i, d := range e.Doubles() {
			items[i] = Double(d)
		}
		return List(items...), nil
	case EngineIntList:
		items := make([]Value, len(e.Ints()))
		for i, n := range e.Ints() {
			items[i] = Int(n)
		}
		return List(items...), nil
	case EngineBoolList:
		items := make([]Value, len(e.Bools()))
		for i, b := range e.Bools() {
			items[i] = Bool(b)
		}
		return List(items...), nil
	case EngineTensor:
		b64, err := EncodeNPYBase64(e.TensorValue())
		if err != nil {
			return Value{}, fmt.Errorf("modelcore: FromEngine: %w", err)
		}
		return TensorNpyB64(b64), nil
	default:
		return Value{}, fmt.Errorf("modelcore: FromEngine: unsupported engine kind %q", e.Kind)
	}
}

func fromEngineList(values []EngineValue) ([]Value, error) {
	out := make([]Value, len(values))
	for i, item := range values {
		converted, err := FromEngine(item)
		if err != nil {
			return nil, err
		}
		out[i] = converted
	}
	return out, nil
}
