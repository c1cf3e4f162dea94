package modelcore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// echoModule is a fake EngineModule used across modelcore's tests: it
// either echoes back its first argument or returns a fixed error,
// standing in for a real native inference runtime.
type echoModule struct {
	failWith error
}

func (m *echoModule) Forward(inputs []EngineValue) (EngineValue, error) {
	if m.failWith != nil {
		return EngineValue{}, m.failWith
	}
	if len(inputs) == 0 {
		return EngineNoneValue(), nil
	}
	return inputs[0], nil
}

func TestGraphForwardEchoesFirstArgument(t *testing.T) {
	g := NewGraph(&echoModule{}, false)
	out, err := g.Forward(NewInput(Int(7), Str("ignored")))
	require.Nil(t, err)
	require.True(t, out.Equal(Int(7)))
}

func TestGraphForwardPropagatesEngineError(t *testing.T) {
	g := NewGraph(&echoModule{failWith: errors.New("boom")}, false)
	_, err := g.Forward(NewInput(Int(1)))
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "boom")
}

func TestGraphForwardBatchedAlwaysUnimplemented(t *testing.T) {
	g := NewGraph(&echoModule{}, true)
	_, err := g.ForwardBatched([]Input{NewInput(Int(1))})
	require.ErrorIs(t, err, ErrNotImplemented)

	g = NewGraph(&echoModule{}, false)
	_, err = g.ForwardBatched([]Input{NewInput(Int(1))})
	require.ErrorIs(t, err, ErrNotImplemented)
}
