package core

import (
	"context"
	"maps"

	"github.com/hupe1980/taskmesh/logging"
)

// TaskObserver is notified about task and review lifecycle events of a run.
// The engine uses it to record task outcomes, fire callbacks and open
// tracing spans. Start hooks may return a derived context which is then used
// for the agent execution.
type TaskObserver interface {
	OnTaskStart(ctx context.Context, task *Task, agent AgentInfo) context.Context
	OnTaskEnd(ctx context.Context, task *Task, state TaskState, output string, err error)
	OnReviewStart(ctx context.Context, draft string) context.Context
	OnReviewEnd(ctx context.Context, review *Review, err error)
}

// NopObserver ignores all lifecycle events.
type NopObserver struct{}

// OnTaskStart implements TaskObserver.
func (NopObserver) OnTaskStart(ctx context.Context, _ *Task, _ AgentInfo) context.Context {
	return ctx
}

// OnTaskEnd implements TaskObserver.
func (NopObserver) OnTaskEnd(context.Context, *Task, TaskState, string, error) {}

// OnReviewStart implements TaskObserver.
func (NopObserver) OnReviewStart(ctx context.Context, _ string) context.Context { return ctx }

// OnReviewEnd implements TaskObserver.
func (NopObserver) OnReviewEnd(context.Context, *Review, error) {}

// RunContext carries execution state and helpers for one pipeline run.
// It aggregates:
//   - The ambient cancellation Context
//   - Identifiers (RunID, current TaskID and Agent info)
//   - The run inputs (user_prompt and any caller supplied values)
//   - The run's MemoryStore, passed explicitly rather than captured
//   - A per-execution model call limiter
//   - The lifecycle observer
//
// The engine creates one RunContext per run. ForTask derives a scoped copy
// for a single agent execution; the MemoryStore is shared by reference.
type RunContext struct {
	Context       context.Context
	RunID         string
	TaskID        string
	Agent         AgentInfo
	Inputs        map[string]string
	Memory        MemoryStore
	MaxModelCalls int
	Limiter       *ModelLimiter
	Observer      TaskObserver

	*loggerAdapter
}

// NewRunContext constructs a RunContext for a run.
func NewRunContext(
	ctx context.Context,
	runID string,
	inputs map[string]string,
	memory MemoryStore,
	observer TaskObserver,
	logger logging.Logger,
) *RunContext {
	if observer == nil {
		observer = NopObserver{}
	}

	return &RunContext{
		Context:       ctx,
		RunID:         runID,
		Inputs:        cloneInputs(inputs),
		Memory:        memory,
		Limiter:       NewModelLimiter(0),
		Observer:      observer,
		loggerAdapter: newLoggerAdapter(logger),
	}
}

// Done returns a channel closed when the underlying context is cancelled.
func (rc *RunContext) Done() <-chan struct{} { return rc.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (rc *RunContext) Err() error { return rc.Context.Err() }

// Input returns the run input stored under key, or "".
func (rc *RunContext) Input(key string) string { return rc.Inputs[key] }

// UserPrompt returns the free-form prompt the run was started with.
func (rc *RunContext) UserPrompt() string { return rc.Inputs[InputUserPrompt] }

// GetAgentName returns the logical agent name for this execution.
func (rc *RunContext) GetAgentName() string { return rc.Agent.Name }

// Clone returns a shallow copy. Inputs are copied, the MemoryStore, limiter
// and observer are shared.
func (rc *RunContext) Clone() *RunContext {
	c := *rc
	c.Inputs = cloneInputs(rc.Inputs)
	return &c
}

// WithContext returns a copy bound to ctx.
func (rc *RunContext) WithContext(ctx context.Context) *RunContext {
	c := rc.Clone()
	c.Context = ctx
	return c
}

// ForTask derives the context for one agent execution of task. The copy
// gets its own model call limiter bounded by maxModelCalls (0 = unlimited).
func (rc *RunContext) ForTask(taskID string, agent AgentInfo, maxModelCalls int) *RunContext {
	c := rc.Clone()
	c.TaskID = taskID
	c.Agent = agent
	c.MaxModelCalls = maxModelCalls
	c.Limiter = NewModelLimiter(maxModelCalls)
	return c
}

// observer returns the configured observer or a no-op.
func (rc *RunContext) observer() TaskObserver {
	if rc.Observer == nil {
		return NopObserver{}
	}
	return rc.Observer
}

// NotifyTaskStart forwards to the observer and rebinds the context it returns.
func (rc *RunContext) NotifyTaskStart(task *Task, agent AgentInfo) *RunContext {
	ctx := rc.observer().OnTaskStart(rc.Context, task, agent)
	if ctx == nil || ctx == rc.Context {
		return rc
	}
	return rc.WithContext(ctx)
}

// NotifyTaskEnd forwards to the observer.
func (rc *RunContext) NotifyTaskEnd(task *Task, state TaskState, output string, err error) {
	rc.observer().OnTaskEnd(rc.Context, task, state, output, err)
}

// NotifyReviewStart forwards to the observer and rebinds the context it returns.
func (rc *RunContext) NotifyReviewStart(draft string) *RunContext {
	ctx := rc.observer().OnReviewStart(rc.Context, draft)
	if ctx == nil || ctx == rc.Context {
		return rc
	}
	return rc.WithContext(ctx)
}

// NotifyReviewEnd forwards to the observer.
func (rc *RunContext) NotifyReviewEnd(review *Review, err error) {
	rc.observer().OnReviewEnd(rc.Context, review, err)
}

func cloneInputs(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	maps.Copy(out, m)
	return out
}
