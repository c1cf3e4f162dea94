package modelcore

// Policy is a per-argument verification policy applied against a
// canonical baseline input. See spec.md §4.3.
type Policy int

const (
	// TypeMatch requires only that the argument's tag matches the
	// baseline's tag; it is satisfied once the tag check passes.
	TypeMatch Policy = iota
	// ExactMatch requires the argument to be structurally equal to
	// the baseline's argument at the same position.
	ExactMatch
	// SizeMatch requires, for Tuple/List arguments, that the
	// collection lengths match the baseline's. It is meaningless
	// (and vacuously satisfied) for any other already-type-matched
	// pair.
	SizeMatch
)

// ModelSemantics is the ordered list of per-argument policies applied
// to a Model's inputs. Its length must equal the baseline sample's
// arity at verification time (see Model.Execute).
type ModelSemantics struct {
	PositionalSemantics []Policy
}

// NewModelSemantics builds a ModelSemantics from the given policies.
func NewModelSemantics(policies ...Policy) ModelSemantics {
	return ModelSemantics{PositionalSemantics: policies}
}

// Verify checks input against baseline under this policy set. The
// first violation wins; the error kind precedence is arity, then
// type, then value/size, per spec.md §4.3.
func (s ModelSemantics) Verify(input, baseline Input) *SemanticError {
	if len(input.PositionalArguments) != len(s.PositionalSemantics) {
		return &SemanticError{
			Kind:     SemanticInputSize,
			Expected: len(s.PositionalSemantics),
			Actual:   len(input.PositionalArguments),
		}
	}
	// A model registered with len(semantics) != len(samples[0]) (the
	// arity mismatch spec.md leaves unvalidated at Register) would
	// otherwise index baseline.PositionalArguments out of range below;
	// surface it as the same InputSize error instead of panicking.
	if len(baseline.PositionalArguments) != len(s.PositionalSemantics) {
		return &SemanticError{
			Kind:     SemanticInputSize,
			Expected: len(s.PositionalSemantics),
			Actual:   len(baseline.PositionalArguments),
		}
	}

	for i := range input.PositionalArguments {
		inArg := input.PositionalArguments[i]
		baseArg := baseline.PositionalArguments[i]

		if inArg.Kind != baseArg.Kind {
			return &SemanticError{Kind: SemanticInputTypes, Position: i}
		}

		switch s.PositionalSemantics[i] {
		case TypeMatch:
			// already satisfied by the tag check above.
		case ExactMatch:
			if !baseArg.Equal(inArg) {
				return &SemanticError{Kind: SemanticInputValue, Position: i}
			}
		case SizeMatch:
			if err := verifySizeMatch(i, baseArg, inArg); err != nil {
				return err
			}
		}
	}
	return nil
}

func verifySizeMatch(position int, baseArg, inArg Value) *SemanticError {
	switch baseArg.Kind {
	case KindTuple, KindList:
		if len(baseArg.Items()) != len(inArg.Items()) {
			return &SemanticError{
				Kind:         SemanticInputSizeMismatch,
				Position:     position,
				ExpectedSize: len(baseArg.Items()),
			}
		}
	}
	return nil
}
