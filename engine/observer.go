package engine

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/logging"
	"github.com/hupe1980/taskmesh/tracing"
)

// runObserver records task outcomes of one run, opens a span per task and
// for the review, and fires the task callbacks.
type runObserver struct {
	engine *Engine
	runID  string
	logger logging.Logger

	mu         sync.Mutex
	records    []TaskRecord
	running    map[string]runningTask
	reviewSpan *tracing.Span
	review     *core.Review
}

type runningTask struct {
	start time.Time
	agent string
	span  *tracing.Span
}

var _ core.TaskObserver = (*runObserver)(nil)

func newRunObserver(e *Engine, runID string, logger logging.Logger) *runObserver {
	return &runObserver{
		engine:  e,
		runID:   runID,
		logger:  logger,
		running: map[string]runningTask{},
	}
}

func (o *runObserver) OnTaskStart(ctx context.Context, task *core.Task, agent core.AgentInfo) context.Context {
	ctx, span := tracing.StartSpan(ctx, o.engine.tracer, "task."+task.ID(), map[string]string{
		"task_id": task.ID(),
		"agent":   agent.Name,
		"kind":    string(agent.Kind),
	})

	o.mu.Lock()
	o.running[task.ID()] = runningTask{start: time.Now(), agent: agent.Name, span: span}
	o.mu.Unlock()

	o.engine.fire(ctx, o.logger, CallbackBeforeTask, &CallbackContext{RunID: o.runID, TaskID: task.ID(), Agent: agent.Name})

	return ctx
}

func (o *runObserver) OnTaskEnd(ctx context.Context, task *core.Task, state core.TaskState, output string, err error) {
	o.mu.Lock()
	rt, ok := o.running[task.ID()]
	delete(o.running, task.ID())
	if !ok {
		rt = runningTask{start: time.Now(), agent: agentOf(task).Name}
	}
	dur := time.Since(rt.start)
	span, agentName := rt.span, rt.agent
	rec := TaskRecord{TaskID: task.ID(), Agent: agentName, State: state, Output: output, Duration: dur}
	if err != nil {
		rec.Error = err.Error()
	}
	o.records = append(o.records, rec)
	o.mu.Unlock()

	span.SetInt("output_len", len(output))
	tracing.EndSpan(span, err)

	if sl, ok := o.logger.(*logging.StructuredLogger); ok {
		sl.LogTaskExecution(task.ID(), agentName, dur, err)
	}

	cc := &CallbackContext{RunID: o.runID, TaskID: task.ID(), Agent: agentName, Output: output, Err: err}
	if err != nil {
		o.engine.fire(ctx, o.logger, CallbackOnError, cc)
		return
	}
	o.engine.fire(ctx, o.logger, CallbackAfterTask, cc)
}

func (o *runObserver) OnReviewStart(ctx context.Context, draft string) context.Context {
	ctx, span := tracing.StartSpan(ctx, o.engine.tracer, "review", map[string]string{
		"draft_len": strconv.Itoa(len(draft)),
	})

	o.mu.Lock()
	o.reviewSpan = span
	o.mu.Unlock()

	return ctx
}

func (o *runObserver) OnReviewEnd(ctx context.Context, review *core.Review, err error) {
	o.mu.Lock()
	span := o.reviewSpan
	o.reviewSpan = nil
	o.review = review
	o.mu.Unlock()

	if review != nil {
		span.SetInt("edits", review.Edits())
		span.SetBool("approved", review.Approved)
		span.SetBool("exhausted", review.Exhausted)
	}
	tracing.EndSpan(span, err)

	if err != nil {
		return
	}
	md := map[string]any{"edits": review.Edits(), "approved": review.Approved, "exhausted": review.Exhausted}
	o.engine.fire(ctx, o.logger, CallbackOnReview, &CallbackContext{RunID: o.runID, Output: review.Final, Metadata: md})
}

// Records returns the task records in completion order.
func (o *runObserver) Records() []TaskRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]TaskRecord(nil), o.records...)
}

// Review returns the reported review, or nil.
func (o *runObserver) Review() *core.Review {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.review
}

func agentOf(task *core.Task) core.AgentInfo {
	if task.Agent() == nil {
		return core.AgentInfo{}
	}
	return task.Agent().Info()
}
