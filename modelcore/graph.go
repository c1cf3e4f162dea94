package modelcore

// EngineModule is the black-box capability a concrete native
// inference runtime exposes: it accepts a list of engine values and
// returns exactly one engine value or an opaque error. Implementations
// must not be called concurrently (see spec.md §5) — the Scheduler's
// single worker is what enforces single-flight access; neither Graph
// nor EngineModule takes a lock.
type EngineModule interface {
	Forward(inputs []EngineValue) (EngineValue, error)
}

// Graph wraps one loaded engine module. It is exclusively owned by
// the Model record that constructs it and is never aliased.
type Graph struct {
	Batchable bool
	Module    EngineModule
}

// NewGraph constructs a Graph over the given module.
func NewGraph(module EngineModule, batchable bool) *Graph {
	return &Graph{Batchable: batchable, Module: module}
}

// Forward converts each positional argument via ToEngine, invokes the
// engine module, and converts the result back via FromEngine. The
// first conversion error, or the engine's own error, is propagated.
func (g *Graph) Forward(input Input) (Value, *EngineError) {
	engineArgs := make([]EngineValue, len(input.PositionalArguments))
	for i, arg := range input.PositionalArguments {
		converted, err := ToEngine(arg)
		if err != nil {
			return Value{}, &EngineError{Message: err.Error()}
		}
		engineArgs[i] = converted
	}

	out, err := g.Module.Forward(engineArgs)
	if err != nil {
		return Value{}, &EngineError{Message: err.Error()}
	}

	result, convErr := FromEngine(out)
	if convErr != nil {
		return Value{}, &EngineError{Message: convErr.Error()}
	}
	return result, nil
}

// ForwardBatched is a declared but unimplemented capability: it fails
// fast unless Batchable is set, and otherwise is still unimplemented,
// per spec.md §4.2 ("do not infer semantics").
func (g *Graph) ForwardBatched(inputs []Input) ([]Value, error) {
	if !g.Batchable {
		return nil, ErrNotImplemented
	}
	return nil, ErrNotImplemented
}
