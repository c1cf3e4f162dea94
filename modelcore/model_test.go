package modelcore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

var errCannotForward = errors.New("cannot forward")

func TestNewModelRejectsEmptySamples(t *testing.T) {
	g := NewGraph(&echoModule{}, false)
	_, err := NewModel(NewModelId(1), g, nil, NewModelSemantics(TypeMatch))
	require.NotNil(t, err)
	require.ErrorIs(t, err, ErrMissingSamples)
}

func TestNewModelRejectsFailingSample(t *testing.T) {
	g := NewGraph(&echoModule{failWith: errCannotForward}, false)
	samples := []Input{NewInput(Int(1))}
	_, err := NewModel(NewModelId(1), g, samples, NewModelSemantics(TypeMatch))
	require.NotNil(t, err)
}

func TestModelWarmupJITRoundRobin(t *testing.T) {
	g := NewGraph(&echoModule{}, false)
	samples := []Input{NewInput(Int(1)), NewInput(Int(2))}
	m, err := NewModel(NewModelId(1), g, samples, NewModelSemantics(TypeMatch))
	require.Nil(t, err)

	require.Nil(t, m.WarmupJIT(0))
	require.Nil(t, m.WarmupJIT(5))
}

func TestModelExecuteWithVerification(t *testing.T) {
	g := NewGraph(&echoModule{}, false)
	samples := []Input{NewInput(Int(1))}
	m, verr := NewModel(NewModelId(1), g, samples, NewModelSemantics(ExactMatch))
	require.Nil(t, verr)

	out, execErr := m.Execute(NewInput(Int(1)), true)
	require.Nil(t, execErr)
	require.True(t, out.Equal(Int(1)))

	_, execErr = m.Execute(NewInput(Int(2)), true)
	require.NotNil(t, execErr)
	require.Equal(t, ExecutionSemantic, execErr.Kind)
}

func TestModelExecuteSkipsVerification(t *testing.T) {
	g := NewGraph(&echoModule{}, false)
	samples := []Input{NewInput(Int(1))}
	m, verr := NewModel(NewModelId(1), g, samples, NewModelSemantics(ExactMatch))
	require.Nil(t, verr)

	out, execErr := m.Execute(NewInput(Int(999)), false)
	require.Nil(t, execErr)
	require.True(t, out.Equal(Int(999)))
}

func TestModelExecuteWrapsEngineError(t *testing.T) {
	g := NewGraph(&echoModule{}, false)
	samples := []Input{NewInput(Int(1))}
	m, verr := NewModel(NewModelId(1), g, samples, NewModelSemantics(TypeMatch))
	require.Nil(t, verr)

	m.graph.Module = &echoModule{failWith: errCannotForward}
	_, execErr := m.Execute(NewInput(Int(1)), false)
	require.NotNil(t, execErr)
	require.Equal(t, ExecutionEngine, execErr.Kind)
}
