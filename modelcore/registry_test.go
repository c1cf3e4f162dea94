package modelcore

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestModel(t *testing.T) *Model {
	t.Helper()
	g := NewGraph(&echoModule{}, false)
	m, err := NewModel(NewModelId(1), g, []Input{NewInput(Int(1))}, NewModelSemantics(TypeMatch))
	require.Nil(t, err)
	return m
}

func TestRegistryRegisterExecuteDelete(t *testing.T) {
	r := NewRegistry()
	m := buildTestModel(t)

	id, regErr := r.Register(m)
	require.Nil(t, regErr)
	require.Equal(t, m.ID, id)
	require.Equal(t, 1, r.Len())

	exec, execErr := r.Execute(id, NewInput(Int(42)), false)
	require.Nil(t, execErr)
	require.True(t, exec.Result.Equal(Int(42)))
	require.True(t, exec.Stats.WallEnd.After(exec.Stats.WallStart) || exec.Stats.WallEnd.Equal(exec.Stats.WallStart))

	require.Nil(t, r.Delete(id))
	require.Equal(t, 0, r.Len())
}

func TestRegistryExecuteMissingModel(t *testing.T) {
	r := NewRegistry()
	_, execErr := r.Execute(NewModelId(1), NewInput(Int(1)), false)
	require.NotNil(t, execErr)
	require.Equal(t, ExecutionMissingModel, execErr.Kind)
}

func TestRegistryDeleteMissingModel(t *testing.T) {
	r := NewRegistry()
	err := r.Delete(NewModelId(1))
	require.NotNil(t, err)
	require.Equal(t, RegistrationMissingModel, err.Kind)
}

func TestRegistryRegisterOverwritesSameID(t *testing.T) {
	r := NewRegistry()
	m := buildTestModel(t)
	id, _ := r.Register(m)

	replacement := buildTestModel(t)
	replacement.ID = id
	_, err := r.Register(replacement)
	require.Nil(t, err)
	require.Equal(t, 1, r.Len())
}

func TestRegistryConcurrentExecuteDoesNotRace(t *testing.T) {
	r := NewRegistry()
	m := buildTestModel(t)
	id, _ := r.Register(m)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := r.Execute(id, NewInput(Int(int64(n))), false)
			assert.Nil(t, err)
		}(i)
	}
	wg.Wait()
}
