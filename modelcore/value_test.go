package modelcore

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValueEqual(t *testing.T) {
	require.True(t, None().Equal(None()))
	require.True(t, Int(7).Equal(Int(7)))
	require.False(t, Int(7).Equal(Int(8)))
	require.False(t, Int(7).Equal(Str("7")))

	require.True(t, List(Int(1), Int(2)).Equal(List(Int(1), Int(2))))
	require.False(t, List(Int(1)).Equal(List(Int(1), Int(2))))

	require.True(t, OptionalSome(Int(1)).Equal(OptionalSome(Int(1))))
	require.False(t, OptionalSome(Int(1)).Equal(OptionalNone()))
	require.False(t, OptionalNone().Equal(None()))
}

func TestValueEqualDoubleNaN(t *testing.T) {
	nan := Double(nan())
	require.True(t, nan.Equal(nan))
	require.False(t, Double(0).Equal(Double(1)))
}

func nan() float64 {
	var zero float64
	return zero / zero
}

func TestValueJSONRoundTrip(t *testing.T) {
	cases := []Value{
		None(),
		Bool(true),
		Int(-5),
		Double(3.5),
		Str("hello"),
		Tuple(Int(1), Str("a")),
		List(Int(1), Int(2), Int(3)),
		OptionalNone(),
		OptionalSome(Int(9)),
		TensorNpyB64("ZmFrZQ=="),
	}
	for _, v := range cases {
		data, err := json.Marshal(v)
		require.NoError(t, err)

		var out Value
		require.NoError(t, json.Unmarshal(data, &out))
		require.True(t, v.Equal(out), "round trip mismatch for %s: got %s", v, out)
	}
}

func TestValueJSONTagShape(t *testing.T) {
	data, err := json.Marshal(Int(42))
	require.NoError(t, err)

	var obj map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &obj))
	require.Len(t, obj, 1)
	require.Contains(t, obj, "Int")
}

func TestValueUnmarshalRejectsMultiKeyObject(t *testing.T) {
	var v Value
	err := json.Unmarshal([]byte(`{"Int": 1, "Str": "x"}`), &v)
	require.Error(t, err)
}

func TestValueUnmarshalRejectsUnknownTag(t *testing.T) {
	var v Value
	err := json.Unmarshal([]byte(`{"Unknown": 1}`), &v)
	require.Error(t, err)
}

func TestInputEqual(t *testing.T) {
	a := NewInput(Int(1), Str("x"))
	b := NewInput(Int(1), Str("x"))
	c := NewInput(Int(1), Str("y"))
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
}
