package core

import (
	"context"
	"fmt"
	"sort"

	"github.com/hupe1980/taskmesh/logging"
)

// ToolContext provides a constrained, auditable surface for tool
// implementations invoked by an agent. Tools can read, but never write, the
// run's MemoryStore: only completion handlers write memory.
type ToolContext struct {
	runCtx         *RunContext
	functionCallID string
	valid          bool

	*loggerAdapter
}

// NewToolContext constructs a tool context bound to a parent RunContext
// and unique functionCallID.
func NewToolContext(runCtx *RunContext, functionCallID string) *ToolContext {
	return &ToolContext{
		runCtx:         runCtx,
		functionCallID: functionCallID,
		valid:          true,
		loggerAdapter:  newLoggerAdapter(runCtx.Logger()),
	}
}

// Context returns the context associated with the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.runCtx.Context }

// RunID returns the run ID associated with the tool invocation.
func (tc *ToolContext) RunID() string { return tc.runCtx.RunID }

// TaskID returns the task being executed when the tool was called.
func (tc *ToolContext) TaskID() string { return tc.runCtx.TaskID }

// Logger returns the logger associated with the tool invocation.
func (tc *ToolContext) Logger() logging.Logger { return tc.loggerAdapter.Logger() }

// FunctionCallID returns the function call ID associated with the tool invocation.
func (tc *ToolContext) FunctionCallID() string { return tc.functionCallID }

// AgentName returns the agent name associated with the tool invocation.
func (tc *ToolContext) AgentName() string { return tc.runCtx.Agent.Name }

// Input returns a run input value.
func (tc *ToolContext) Input(key string) string { return tc.runCtx.Input(key) }

// GetMemory returns the value stored under key in the run's MemoryStore.
func (tc *ToolContext) GetMemory(key string) (string, bool) {
	if tc.runCtx.Memory == nil {
		return "", false
	}
	snap := tc.runCtx.Memory.Snapshot()
	v, ok := snap[key]
	return v, ok
}

// MemoryKeys returns the sorted keys currently held in the run's MemoryStore.
func (tc *ToolContext) MemoryKeys() []string {
	if tc.runCtx.Memory == nil {
		return []string{}
	}
	snap := tc.runCtx.Memory.Snapshot()
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate performs a structural sanity check of the context.
func (tc *ToolContext) Validate() error {
	if !tc.valid || tc.runCtx == nil || tc.runCtx.RunID == "" || tc.functionCallID == "" {
		return fmt.Errorf("invalid ToolContext")
	}

	return nil
}
