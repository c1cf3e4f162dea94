package modelcore

// Model binds a ModelId to an owned Graph, a non-empty list of
// verification/warmup samples, and the argument-position semantics
// applied at execute time. It is immutable after construction; see
// spec.md §3.
type Model struct {
	ID        ModelId
	graph     *Graph
	samples   []Input
	semantics ModelSemantics
}

// NewModel constructs a Model, taking ownership of graph, samples, and
// semantics. Every sample must successfully forward through the graph;
// the first failure aborts construction. Per spec.md §9 Open Question
// #1, a mismatch between len(semantics.PositionalSemantics) and samples[0]'s arity is not
// validated here — it is an invariant that, if violated, surfaces as a
// SemanticError.InputSize the first time Execute(verify=true) runs.
func NewModel(id ModelId, graph *Graph, samples []Input, semantics ModelSemantics) (*Model, *VerificationError) {
	if len(samples) < 1 {
		return nil, &VerificationError{Err: ErrMissingSamples}
	}
	for _, sample := range samples {
		if _, err := graph.Forward(sample); err != nil {
			return nil, &VerificationError{Err: err}
		}
	}
	return &Model{ID: id, graph: graph, samples: samples, semantics: semantics}, nil
}

// WarmupJIT cycles through samples invoking graph.Forward exactly n
// times, round-robin over samples. n=0 is a no-op. Any engine error
// aborts the warmup.
func (m *Model) WarmupJIT(n int) *VerificationError {
	for i := 0; i < n; i++ {
		sample := m.samples[i%len(m.samples)]
		if _, err := m.graph.Forward(sample); err != nil {
			return &VerificationError{Err: err}
		}
	}
	return nil
}

// Execute runs input through the model. If verify is set, input is
// checked against semantics and samples[0] first; a violation is
// wrapped as ExecutionError{Kind: ExecutionSemantic}. Otherwise (or on
// verification success), input is forwarded through the graph, with
// engine failures wrapped as ExecutionError{Kind: ExecutionEngine}.
func (m *Model) Execute(input Input, verify bool) (Value, *ExecutionError) {
	if verify {
		if semErr := m.semantics.Verify(input, m.samples[0]); semErr != nil {
			return Value{}, &ExecutionError{Kind: ExecutionSemantic, Semantic: semErr}
		}
	}
	result, engineErr := m.graph.Forward(input)
	if engineErr != nil {
		return Value{}, &ExecutionError{Kind: ExecutionEngine, Engine: engineErr}
	}
	return result, nil
}

// Samples exposes the construction-time sample inputs.
func (m *Model) Samples() []Input { return m.samples }

// Semantics exposes the per-argument verification policy.
func (m *Model) Semantics() ModelSemantics { return m.semantics }
