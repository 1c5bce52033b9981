package testutil

import (
	"context"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/logging"
	"github.com/hupe1980/taskmesh/memory"
)

// RunContextBuilder helps construct run contexts with fluent chaining for tests.
// Example:
//
//	rc := NewRunContextBuilder("run-1").Prompt("partner with a fintech").Memory("idea", "x").Build()
type RunContextBuilder struct {
	ctx      context.Context
	runID    string
	inputs   map[string]string
	memory   map[string]string
	store    core.MemoryStore
	observer core.TaskObserver
	logger   logging.Logger
}

// NewRunContextBuilder creates a builder for a run with the given id.
func NewRunContextBuilder(runID string) *RunContextBuilder {
	return &RunContextBuilder{
		ctx:    context.Background(),
		runID:  runID,
		inputs: map[string]string{},
		memory: map[string]string{},
		logger: logging.NoOpLogger{},
	}
}

// Context sets the ambient context (chainable).
func (b *RunContextBuilder) Context(ctx context.Context) *RunContextBuilder { b.ctx = ctx; return b }

// Prompt sets the user_prompt input (chainable).
func (b *RunContextBuilder) Prompt(p string) *RunContextBuilder {
	b.inputs[core.InputUserPrompt] = p
	return b
}

// Input sets a run input (chainable).
func (b *RunContextBuilder) Input(key, val string) *RunContextBuilder {
	b.inputs[key] = val
	return b
}

// Memory pre-populates a memory key (chainable).
func (b *RunContextBuilder) Memory(key, val string) *RunContextBuilder {
	b.memory[key] = val
	return b
}

// Store replaces the default in-memory store (chainable).
func (b *RunContextBuilder) Store(s core.MemoryStore) *RunContextBuilder { b.store = s; return b }

// Observer sets the lifecycle observer (chainable).
func (b *RunContextBuilder) Observer(o core.TaskObserver) *RunContextBuilder { b.observer = o; return b }

// Logger sets the logger (chainable).
func (b *RunContextBuilder) Logger(l logging.Logger) *RunContextBuilder { b.logger = l; return b }

// Build returns the *core.RunContext.
func (b *RunContextBuilder) Build() *core.RunContext {
	store := b.store
	if store == nil {
		store = memory.NewInMemoryStore()
	}
	for k, v := range b.memory {
		store.Set(k, v)
	}
	return core.NewRunContext(b.ctx, b.runID, b.inputs, store, b.observer, b.logger)
}
