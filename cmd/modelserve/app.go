package main

import (
	"fmt"

	"github.com/scriptmaster/modelserve/internal/config"
	"github.com/scriptmaster/modelserve/internal/obslog"
	"github.com/scriptmaster/modelserve/modelcore"
	"github.com/scriptmaster/modelserve/onnxengine"
)

// loadedModel bundles everything a subcommand needs to talk to one
// registered causal LM: the vocabulary (for prompt/response text
// conversion), the registry it was registered into, and its id.
type loadedModel struct {
	cfg      config.Config
	vocab    *onnxengine.Vocabulary
	registry *modelcore.Registry
	id       modelcore.ModelId
}

// loadAndRegister performs the full load → wrap → verify → register
// pipeline: onnxengine.LoadCausalLM builds the concrete EngineModule,
// a single greeting exchange becomes the construction-time sample
// Graph/Model verification requires, and the model is registered
// under a fresh ModelId.
func loadAndRegister() (*loadedModel, error) {
	cfg := loadedConfig()

	if _, err := onnxengine.EnsureONNXRuntimeSharedLib(); err != nil {
		return nil, fmt.Errorf("ensure onnxruntime shared library: %w", err)
	}

	mod, err := onnxengine.LoadCausalLM(cfg.ModelID, cfg.Dtype, onnxengine.IOPresetAuto)
	if err != nil {
		return nil, fmt.Errorf("load causal LM %q: %w", cfg.ModelID, err)
	}

	vocab, err := onnxengine.AutoVocabulary.FromPretrained(cfg.ModelID)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}

	sample, err := vocab.PromptValue([]onnxengine.ChatMessage{
		{Role: onnxengine.RoleUser, Content: "hello"},
	})
	if err != nil {
		return nil, fmt.Errorf("build construction-time sample: %w", err)
	}

	// The sample's arity must match every real call's arity: prompt
	// token ids, max_new_tokens, do_sample, in that order, since
	// ModelSemantics checks each positional argument by index.
	graph := modelcore.NewGraph(mod, false)
	model, verErr := modelcore.NewModel(
		modelcore.NewModelId(1),
		graph,
		[]modelcore.Input{modelcore.NewInput(sample, modelcore.Int(8), modelcore.Bool(false))},
		modelcore.NewModelSemantics(modelcore.TypeMatch, modelcore.TypeMatch, modelcore.TypeMatch),
	)
	if verErr != nil {
		return nil, fmt.Errorf("construct model: %w", verErr.Err)
	}

	if cfg.WarmupIterations > 0 {
		if verErr := model.WarmupJIT(cfg.WarmupIterations); verErr != nil {
			obslog.Log.WithError(verErr.Err).Warn("warmup failed, continuing")
		}
	}

	registry := modelcore.NewRegistry()
	id, regErr := registry.Register(model)
	if regErr != nil {
		return nil, fmt.Errorf("register model: %w", regErr)
	}

	obslog.Log.WithField("model_id", id.String()).Info("model registered")

	return &loadedModel{cfg: cfg, vocab: vocab, registry: registry, id: id}, nil
}
