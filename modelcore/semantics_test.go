package modelcore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVerifyArityMismatch(t *testing.T) {
	sem := NewModelSemantics(TypeMatch)
	baseline := NewInput(Int(1))
	err := sem.Verify(NewInput(Int(1), Int(2)), baseline)
	require.NotNil(t, err)
	require.Equal(t, SemanticInputSize, err.Kind)
}

func TestVerifyTypeMismatchWinsOverValue(t *testing.T) {
	sem := NewModelSemantics(ExactMatch)
	baseline := NewInput(Int(1))
	err := sem.Verify(NewInput(Str("1")), baseline)
	require.NotNil(t, err)
	require.Equal(t, SemanticInputTypes, err.Kind)
}

func TestVerifyTypeMatchIsLenient(t *testing.T) {
	sem := NewModelSemantics(TypeMatch)
	baseline := NewInput(Int(1))
	err := sem.Verify(NewInput(Int(999)), baseline)
	require.Nil(t, err)
}

func TestVerifyExactMatch(t *testing.T) {
	sem := NewModelSemantics(ExactMatch)
	baseline := NewInput(Int(1))
	require.Nil(t, sem.Verify(NewInput(Int(1)), baseline))

	err := sem.Verify(NewInput(Int(2)), baseline)
	require.NotNil(t, err)
	require.Equal(t, SemanticInputValue, err.Kind)
}

func TestVerifySizeMatch(t *testing.T) {
	sem := NewModelSemantics(SizeMatch)
	baseline := NewInput(List(Int(1), Int(2)))

	require.Nil(t, sem.Verify(NewInput(List(Int(9), Int(9))), baseline))

	err := sem.Verify(NewInput(List(Int(9))), baseline)
	require.NotNil(t, err)
	require.Equal(t, SemanticInputSizeMismatch, err.Kind)
	require.Equal(t, 2, err.ExpectedSize)
}

func TestVerifySizeMatchVacuousOnScalars(t *testing.T) {
	sem := NewModelSemantics(SizeMatch)
	baseline := NewInput(Int(1))
	require.Nil(t, sem.Verify(NewInput(Int(42)), baseline))
}

func TestVerifyBaselineShorterThanSemanticsReturnsInputSize(t *testing.T) {
	sem := NewModelSemantics(TypeMatch, TypeMatch, TypeMatch)
	baseline := NewInput(Int(1))

	err := sem.Verify(NewInput(Int(1), Int(2), Int(3)), baseline)
	require.NotNil(t, err)
	require.Equal(t, SemanticInputSize, err.Kind)
}

func TestVerifyMultiplePositionsFirstViolationWins(t *testing.T) {
	sem := NewModelSemantics(TypeMatch, ExactMatch)
	baseline := NewInput(Int(1), Int(2))

	err := sem.Verify(NewInput(Int(1), Int(99)), baseline)
	require.NotNil(t, err)
	require.Equal(t, SemanticInputValue, err.Kind)
	require.Equal(t, 1, err.Position)
}
