package onnxengine

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	onnx "github.com/yalue/onnxruntime_go"

	"github.com/scriptmaster/modelserve/internal/obslog"
	"github.com/scriptmaster/modelserve/modelcore"
)

// Module is an ONNX-Runtime-backed causal language model. It
// implements modelcore.EngineModule. It takes no lock around the
// single *onnx.DynamicAdvancedSession it owns; when it is reached only
// through a modelcore.Scheduler, that scheduler's single worker is the
// only caller.
type Module struct {
	modelID   string
	config    *Config
	vocab     *Vocabulary
	session   *onnx.DynamicAdvancedSession
	ioPreset  IOPreset
	inNames   []string
	outNames  []string
	dtype     string
	inputInfo map[string]onnx.InputOutputInfo
}

// LoadCausalLM folds AutoConfig/AutoVocabulary/session construction
// into a single entry point, the way the HF-style static dispatchers
// this is adapted from are normally chained by a caller:
//
//	cfg, _ := AutoConfig.FromPretrained(id)
//	tok, _ := AutoTokenizer.FromPretrained(id)
//	m, _ := AutoModelForCausalLM.FromPretrained(id, cfg, dtype, preset)
func LoadCausalLM(modelID, dtype string, ioPreset IOPreset) (*Module, error) {
	cfg, err := AutoConfig.FromPretrained(modelID)
	if err != nil {
		return nil, fmt.Errorf("onnxengine: load config: %w", err)
	}

	vocab, err := AutoVocabulary.FromPretrained(modelID)
	if err != nil {
		return nil, fmt.Errorf("onnxengine: load vocabulary: %w", err)
	}

	filename := "onnx/model.onnx"
	switch dtype {
	case "q4":
		filename = "onnx/model_q4.onnx"
	case "fp16":
		filename = "onnx/model_fp16.onnx"
	}

	onnxPath, err := HFHubDownload(modelID, filename)
	if err != nil {
		return nil, fmt.Errorf("onnxengine: download onnx model: %w", err)
	}
	if strings.HasSuffix(filename, ".onnx") {
		_, _ = HFHubEnsureOptionalFiles(modelID, []string{filename + "_data"})
	}

	if err := onnx.InitializeEnvironment(onnx.WithLogLevelWarning()); err != nil {
		return nil, fmt.Errorf("onnxengine: InitializeEnvironment: %w", err)
	}

	inInfos, _, err := onnx.GetInputOutputInfo(onnxPath)
	if err != nil {
		return nil, fmt.Errorf("onnxengine: GetInputOutputInfo: %w", err)
	}
	inputInfo := make(map[string]onnx.InputOutputInfo, len(inInfos))
	for _, info := range inInfos {
		inputInfo[info.Name] = info
	}

	inNames, outNames, err := resolveIONames(onnxPath, ioPreset)
	if err != nil {
		return nil, err
	}

	sess, err := onnx.NewDynamicAdvancedSession(onnxPath, inNames, outNames, nil)
	if err != nil {
		return nil, fmt.Errorf("onnxengine: create ONNX session: %w", err)
	}

	m := &Module{
		modelID:   modelID,
		config:    cfg,
		vocab:     vocab,
		session:   sess,
		ioPreset:  ioPreset,
		inNames:   inNames,
		outNames:  outNames,
		dtype:     dtype,
		inputInfo: inputInfo,
	}

	logModelLoadInfo(modelID)
	return m, nil
}

// generationRequest is the decoded form of Forward's positional
// EngineValue arguments.
type generationRequest struct {
	promptIDs    []int64
	maxNewTokens int
	doSample     bool
}

// Forward is the modelcore.EngineModule entry point. It expects:
//
//	inputs[0]: GenericList of Int — prompt token ids, produced by
//	           Vocabulary.PromptValue (modelcore.ToEngine demotes a
//	           Value List(Int...) to a GenericList of Int engine
//	           values, not an IntList — IntList only ever appears as
//	           something an EngineModule itself constructs)
//	inputs[1] (optional): Int — max_new_tokens, default 32
//	inputs[2] (optional): Bool — do_sample, default false
//
// and returns an IntList of the generated token ids, leaving decoding
// back to text (and stop-sequence truncation of that text) to the
// caller via Vocabulary.Decode.
func (m *Module) Forward(inputs []modelcore.EngineValue) (modelcore.EngineValue, error) {
	req, err := parseGenerationRequest(inputs)
	if err != nil {
		return modelcore.EngineValue{}, err
	}

	attentionMask := make([]int64, len(req.promptIDs))
	for i := range attentionMask {
		attentionMask[i] = 1
	}

	stopSeqs := m.config.StopStrings()
	if len(stopSeqs) == 0 {
		stopSeqs = []string{"\nUser:", "\nuser:", "\nAssistant:", "\nassistant:"}
	}

	generated, err := m.generateSimpleCausal(req.promptIDs, attentionMask, req.maxNewTokens, req.doSample, stopSeqs)
	if err != nil {
		return modelcore.EngineValue{}, fmt.Errorf("onnxengine: generate: %w", err)
	}

	return modelcore.EngineIntListValue(generated), nil
}

func parseGenerationRequest(inputs []modelcore.EngineValue) (generationRequest, error) {
	if len(inputs) == 0 {
		return generationRequest{}, errors.New("onnxengine: Forward: missing prompt token ids argument")
	}
	promptIDs, err := engineIntListOrGenericList(inputs[0])
	if err != nil {
		return generationRequest{}, fmt.Errorf("onnxengine: Forward: prompt: %w", err)
	}
	if len(promptIDs) == 0 {
		return generationRequest{}, errors.New("onnxengine: Forward: prompt token ids must not be empty")
	}

	req := generationRequest{promptIDs: promptIDs, maxNewTokens: 32}

	if len(inputs) > 1 && inputs[1].Kind == modelcore.EngineInt {
		req.maxNewTokens = int(inputs[1].IntValue())
	}
	if len(inputs) > 2 && inputs[2].Kind == modelcore.EngineBool {
		req.doSample = inputs[2].BoolValue()
	}

	return req, nil
}

// engineIntListOrGenericList accepts the IntList shape an EngineModule
// may itself construct as well as the GenericList-of-Int shape
// modelcore.ToEngine actually produces from a Value List(Int...), so
// Forward works whether it's called through a Graph or handed an
// engine value built directly by another EngineModule.
func engineIntListOrGenericList(v modelcore.EngineValue) ([]int64, error) {
	switch v.Kind {
	case modelcore.EngineIntList:
		return v.Ints(), nil
	case modelcore.EngineGenericList:
		items := v.Items()
		ids := make([]int64, len(items))
		for i, item := range items {
			if item.Kind != modelcore.EngineInt {
				return nil, fmt.Errorf("list element %d must be Int, got %s", i, item.Kind)
			}
			ids[i] = item.IntValue()
		}
		return ids, nil
	default:
		return nil, fmt.Errorf("must be a list of Int, got %s", v.Kind)
	}
}

// generateSimpleCausal runs a token-by-token decoding loop using only
// input_ids/attention_mask (plus position_ids 0..n-1 when declared, and
// zeroed placeholders for any other declared input), greedy by default
// or multinomial sampling when doSample is set. It stops at EOS or once
// the decoded text contains a stop sequence; the token that completed
// the stop sequence is kept in the returned ids.
func (m *Module) generateSimpleCausal(curIDs, curMask []int64, maxNewTokens int, doSample bool, stopSeqs []string) ([]int64, error) {
	if m.session == nil {
		return nil, errors.New("generateSimpleCausal: session is nil")
	}
	if maxNewTokens <= 0 {
		maxNewTokens = 32
	}

	var generated []int64
	eosID := m.config.EOSTokenID()
	var fullText string

	for step := 0; step < maxNewTokens; step++ {
		inputTensor, err := tensorFromInt64s(curIDs, []int64{1, int64(len(curIDs))})
		if err != nil {
			return nil, fmt.Errorf("create input_ids tensor: %w", err)
		}
		maskTensor, err := tensorFromInt64s(curMask, []int64{1, int64(len(curMask))})
		if err != nil {
			inputTensor.Destroy()
			return nil, fmt.Errorf("create attention_mask tensor: %w", err)
		}

		onnxInputs := make([]onnx.Value, len(m.inNames))
		var toDestroy []onnx.Value
		for i, name := range m.inNames {
			switch name {
			case "input_ids":
				onnxInputs[i] = inputTensor
			case "attention_mask":
				onnxInputs[i] = maskTensor
			case "position_ids":
				pos := make([]int64, len(curIDs))
				for j := range pos {
					pos[j] = int64(j)
				}
				t, err := tensorFromInt64s(pos, []int64{1, int64(len(pos))})
				if err != nil {
					inputTensor.Destroy()
					maskTensor.Destroy()
					return nil, fmt.Errorf("create position_ids tensor: %w", err)
				}
				onnxInputs[i] = t
				toDestroy = append(toDestroy, t)
			default:
				t, err := m.zeroTensorForInput(name, len(curIDs))
				if err != nil {
					inputTensor.Destroy()
					maskTensor.Destroy()
					for _, v := range toDestroy {
						v.Destroy()
					}
					return nil, err
				}
				onnxInputs[i] = t
				toDestroy = append(toDestroy, t)
			}
		}

		onnxOutputs := make([]onnx.Value, len(m.outNames))
		if err := m.session.Run(onnxInputs, onnxOutputs); err != nil {
			inputTensor.Destroy()
			maskTensor.Destroy()
			for _, v := range toDestroy {
				v.Destroy()
			}
			return nil, fmt.Errorf("onnx Run: %w", err)
		}

		inputTensor.Destroy()
		maskTensor.Destroy()
		for _, v := range toDestroy {
			v.Destroy()
		}

		var logitsTensor *onnx.Tensor[float32]
		for i, name := range m.outNames {
			if name != "logits" {
				if onnxOutputs[i] != nil {
					_ = onnxOutputs[i].Destroy()
				}
				continue
			}
			val := onnxOutputs[i]
			if val == nil {
				return nil, errors.New("onnx output 'logits' missing")
			}
			t, ok := val.(*onnx.Tensor[float32])
			if !ok {
				return nil, errors.New("onnx 'logits' is not a float32 Tensor")
			}
			logitsTensor = t
		}
		if logitsTensor == nil {
			return nil, errors.New("onnx output 'logits' missing")
		}

		raw := logitsTensor.GetData()
		shape := logitsTensor.GetShape()
		if len(shape) != 3 {
			logitsTensor.Destroy()
			return nil, fmt.Errorf("unexpected logits shape: %v", shape)
		}
		vocabSize := int(shape[2])
		start := (len(curIDs) - 1) * vocabSize
		end := start + vocabSize
		lastLogits := append([]float32(nil), raw[start:end]...)
		logitsTensor.Destroy()

		var nextID int64
		if doSample {
			softmaxF32(lastLogits)
			nextID = int64(sampleFromProbsF32(lastLogits, rand.Float32))
		} else {
			nextID = int64(argmaxF32(lastLogits))
		}

		generated = append(generated, nextID)
		curIDs = append(curIDs, nextID)
		curMask = append(curMask, 1)

		if txt, err := m.vocab.Decode([]int64{nextID}); err == nil {
			fullText += txt
		}

		stopHit := false
		for _, stop := range stopSeqs {
			if stop != "" && strings.Contains(fullText, stop) {
				stopHit = true
				break
			}
		}

		if (eosID >= 0 && nextID == eosID) || stopHit {
			break
		}
	}

	return generated, nil
}

func (m *Module) zeroTensorForInput(name string, seqLen int) (onnx.Value, error) {
	info, ok := m.inputInfo[name]
	if !ok {
		return nil, fmt.Errorf("generateSimpleCausal: unsupported input name %q", name)
	}
	isCache := strings.Contains(name, "past") || strings.Contains(name, "cache")
	shape := make([]int64, len(info.Dimensions))
	for i, d := range info.Dimensions {
		if d <= 0 {
			switch {
			case i == 0:
				shape[i] = 1
			case isCache:
				shape[i] = 0
			default:
				shape[i] = 1
			}
			if !isCache && i == len(info.Dimensions)-1 && seqLen > 0 {
				shape[i] = int64(seqLen)
			}
		} else {
			shape[i] = d
		}
	}

	switch info.DataType {
	case onnx.TensorElementDataTypeInt64:
		count := int64(1)
		for _, d := range shape {
			count *= d
		}
		return tensorFromInt64s(make([]int64, count), shape)
	default:
		count := int64(1)
		for _, d := range shape {
			count *= d
		}
		return tensorFromFloat32s(make([]float32, count), shape)
	}
}

func logModelLoadInfo(modelID string) {
	obslog.ModelLoaded(modelID, listDownloaded(modelID), currentRSSMB())
}

// listDownloaded walks the Hub cache directory for modelID and
// returns the set of files already cached there, relative to the
// repo's cache root.
func listDownloaded(modelID string) []string {
	root, err := hfCacheDir(modelID)
	if err != nil {
		return nil
	}
	var files []string
	filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		files = append(files, rel)
		return nil
	})
	return files
}

func currentRSSMB() float64 {
	data, err := os.ReadFile("/proc/self/statm")
	if err != nil {
		return 0
	}
	fields := strings.Fields(string(data))
	if len(fields) < 2 {
		return 0
	}
	residentPages, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return 0
	}
	pageSize := int64(os.Getpagesize())
	return float64(residentPages*pageSize) / (1024.0 * 1024.0)
}
