package onnxengine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveIONamesSimpleCausal(t *testing.T) {
	inputs, outputs, err := resolveIONames("", IOPresetSimpleCausal)
	require.NoError(t, err)
	require.Equal(t, []string{"input_ids", "attention_mask"}, inputs)
	require.Equal(t, []string{"logits"}, outputs)
}

func TestResolveIONamesLFM2FallsBackToSimpleCausal(t *testing.T) {
	inputs, outputs, err := resolveIONames("", IOPresetLFM2)
	require.NoError(t, err)
	require.Equal(t, []string{"input_ids", "attention_mask"}, inputs)
	require.Equal(t, []string{"logits"}, outputs)
}

func TestResolveIONamesAutoRequiresPath(t *testing.T) {
	_, _, err := resolveIONames("", IOPresetAuto)
	require.Error(t, err)
}
