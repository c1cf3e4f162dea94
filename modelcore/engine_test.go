package modelcore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToFromEngineRoundTrip(t *testing.T) {
	cases := []Value{
		None(),
		Bool(false),
		Int(123),
		Double(1.5),
		Str("s"),
		Tuple(Int(1), Str("x")),
		List(Int(1), Int(2)),
	}
	for _, v := range cases {
		e, err := ToEngine(v)
		require.NoError(t, err)

		back, err := FromEngine(e)
		require.NoError(t, err)
		require.True(t, v.Equal(back), "round trip mismatch for %s: got %s", v, back)
	}
}

func TestToEngineOptionalUnwraps(t *testing.T) {
	e, err := ToEngine(OptionalSome(Int(5)))
	require.NoError(t, err)
	require.Equal(t, EngineInt, e.Kind)
	require.Equal(t, int64(5), e.IntValue())

	e, err = ToEngine(OptionalNone())
	require.NoError(t, err)
	require.Equal(t, EngineNone, e.Kind)
}

func TestFromEnginePrimitiveListsDemoteToTaggedList(t *testing.T) {
	out, err := FromEngine(EngineDoubleListValue([]float64{1, 2, 3}))
	require.NoError(t, err)
	require.Equal(t, KindList, out.Kind)
	require.Len(t, out.Items(), 3)
	require.Equal(t, KindDouble, out.Items()[0].Kind)

	out, err = FromEngine(EngineIntListValue([]int64{1, 2}))
	require.NoError(t, err)
	require.True(t, out.Equal(List(Int(1), Int(2))))

	out, err = FromEngine(EngineBoolListValue([]bool{true, false}))
	require.NoError(t, err)
	require.True(t, out.Equal(List(Bool(true), Bool(false))))
}

func TestFromEngineRejectsDict(t *testing.T) {
	_, err := FromEngine(EngineValue{Kind: EngineDict})
	require.Error(t, err)
}

func TestTensorThroughEngine(t *testing.T) {
	tensor := Tensor{Data: []byte{1, 2, 3, 4}, Shape: []int64{4}, Dtype: "u1"}
	b64, err := EncodeNPYBase64(tensor)
	require.NoError(t, err)

	e, err := ToEngine(TensorNpyB64(b64))
	require.NoError(t, err)
	require.Equal(t, EngineTensor, e.Kind)
	require.Equal(t, tensor, e.TensorValue())

	v, err := FromEngine(e)
	require.NoError(t, err)
	require.Equal(t, KindTensor, v.Kind)
	require.Equal(t, b64, v.TensorPayload())
}
