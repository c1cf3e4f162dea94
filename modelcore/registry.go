package modelcore

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// ExecutionStatistics captures the timing of one Registry.Execute
// call. Go's time.Time retains a monotonic reading alongside the wall
// clock, so Elapsed (computed via WallEnd.Sub(WallStart)) is immune to
// wall-clock adjustments exactly as spec.md §4.5's separate
// SystemTime/Instant capture intends — no separate monotonic type is
// needed in idiomatic Go.
type ExecutionStatistics struct {
	Elapsed   time.Duration
	WallStart time.Time
	WallEnd   time.Time
}

// Executed is the result of a successful Registry.Execute call.
type Executed struct {
	Stats  ExecutionStatistics
	Result Value
}

// Registry is a concurrent map from ModelId to shared Model. Readers
// and writers synchronise over a single RWMutex; Execute releases its
// read lock before invoking the (potentially slow) engine call, so
// concurrent lookups and deletions are never blocked on an in-flight
// inference — see spec.md §4.5.
type Registry struct {
	mu       sync.RWMutex
	models   map[ModelId]*Model
	poisoned atomic.Bool
	metrics  *registryMetrics
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{models: make(map[ModelId]*Model), metrics: newRegistryMetrics()}
}

// Register inserts model under its own ID, overwriting any existing
// entry (last-writer-wins). Verification has already occurred in
// NewModel, so Register never fails except on a poisoned lock.
func (r *Registry) Register(model *Model) (id ModelId, regErr *RegistrationError) {
	if r.poisoned.Load() {
		return ModelId{}, &RegistrationError{Kind: RegistrationPoison}
	}
	defer func() {
		if p := recover(); p != nil {
			r.poisoned.Store(true)
			id = ModelId{}
			regErr = &RegistrationError{Kind: RegistrationPoison}
		}
	}()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[model.ID] = model
	return model.ID, nil
}

// Delete removes id from the registry. Deleting an absent id is an
// error; outstanding Executes that already captured a shared *Model
// reference are unaffected and run to completion.
func (r *Registry) Delete(id ModelId) (regErr *RegistrationError) {
	if r.poisoned.Load() {
		return &RegistrationError{Kind: RegistrationPoison}
	}
	defer func() {
		if p := recover(); p != nil {
			r.poisoned.Store(true)
			regErr = &RegistrationError{Kind: RegistrationPoison}
		}
	}()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.models[id]; !ok {
		return &RegistrationError{Kind: RegistrationMissingModel}
	}
	delete(r.models, id)
	return nil
}

// Execute looks up id, clones the shared *Model handle, releases the
// guard, then forwards input through the model. MissingModel is
// returned if id is absent.
func (r *Registry) Execute(id ModelId, input Input, verify bool) (exec Executed, execErr *ExecutionError) {
	if r.poisoned.Load() {
		return Executed{}, &ExecutionError{Kind: ExecutionPoison}
	}

	var model *Model
	func() {
		defer func() {
			if p := recover(); p != nil {
				r.poisoned.Store(true)
			}
		}()
		r.mu.RLock()
		defer r.mu.RUnlock()
		model = r.models[id]
	}()

	if r.poisoned.Load() {
		return Executed{}, &ExecutionError{Kind: ExecutionPoison}
	}
	if model == nil {
		return Executed{}, ErrMissingModel
	}

	wallStart := time.Now()
	result, modelErr := model.Execute(input, verify)
	wallEnd := time.Now()
	stats := ExecutionStatistics{
		Elapsed:   wallEnd.Sub(wallStart),
		WallStart: wallStart,
		WallEnd:   wallEnd,
	}
	if modelErr != nil {
		r.metrics.observe(context.Background(), id, stats, "error")
		return Executed{}, modelErr
	}

	r.metrics.observe(context.Background(), id, stats, "ok")
	return Executed{Stats: stats, Result: result}, nil
}

// Len reports the number of registered models; used by tests, not by
// spec.md directly.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.models)
}
