package onnxengine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scriptmaster/modelserve/modelcore"
)

func TestTokenIDsValueRoundTrip(t *testing.T) {
	ids := []int64{1, 2, 3, 42}
	v := TokenIDsToValue(ids)
	require.Equal(t, modelcore.KindList, v.Kind)

	back, err := ValueToTokenIDs(v)
	require.NoError(t, err)
	require.Equal(t, ids, back)
}

func TestTokenIDsToValueEmpty(t *testing.T) {
	v := TokenIDsToValue(nil)
	ids, err := ValueToTokenIDs(v)
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestValueToTokenIDsRejectsNonList(t *testing.T) {
	_, err := ValueToTokenIDs(modelcore.Int(5))
	require.Error(t, err)
}

func TestValueToTokenIDsRejectsNonIntElements(t *testing.T) {
	_, err := ValueToTokenIDs(modelcore.List(modelcore.Str("nope")))
	require.Error(t, err)
}

func TestTruncateAtStops(t *testing.T) {
	require.Equal(t, "Paris is the capital.",
		TruncateAtStops("Paris is the capital.\nUser: and?", []string{"\nUser:", "\nAssistant:"}))

	require.Equal(t, "no stop sequence present",
		TruncateAtStops("no stop sequence present", []string{"\nUser:"}))

	require.Equal(t, "", TruncateAtStops("   ", nil))
}
