package onnxengine

import (
	"fmt"

	onnx "github.com/yalue/onnxruntime_go"
)

// IOPreset describes how a Module's input/output tensor names are
// resolved against the loaded ONNX graph.
type IOPreset int

const (
	// IOPresetAuto falls back to GetInputOutputInfo on the session.
	IOPresetAuto IOPreset = iota
	// IOPresetSimpleCausal is the standard GPT-style wiring:
	// [input_ids, attention_mask] -> [logits].
	IOPresetSimpleCausal
	// IOPresetLFM2 is a recognized-but-unimplemented recurrent-cache
	// preset; resolveIONames falls back to the simple causal wiring
	// for it rather than guessing at a past-key-value naming scheme.
	IOPresetLFM2
)

func resolveIONames(onnxPath string, preset IOPreset) (inputs, outputs []string, err error) {
	switch preset {
	case IOPresetSimpleCausal, IOPresetLFM2:
		return simpleCausalIONames()
	case IOPresetAuto:
		fallthrough
	default:
		return discoverIONamesFromModel(onnxPath)
	}
}

func simpleCausalIONames() ([]string, []string, error) {
	return []string{"input_ids", "attention_mask"}, []string{"logits"}, nil
}

func discoverIONamesFromModel(onnxPath string) ([]string, []string, error) {
	if onnxPath == "" {
		return nil, nil, fmt.Errorf("onnxengine: discoverIONamesFromModel: onnxPath is empty")
	}

	inputInfos, outputInfos, err := onnx.GetInputOutputInfo(onnxPath)
	if err != nil {
		return nil, nil, fmt.Errorf("onnxengine: discoverIONamesFromModel: %w", err)
	}

	inputs := make([]string, 0, len(inputInfos))
	for _, info := range inputInfos {
		inputs = append(inputs, info.Name)
	}

	outputs := make([]string, 0, len(outputInfos))
	for _, info := range outputInfos {
		outputs = append(outputs, info.Name)
	}

	return inputs, outputs, nil
}
