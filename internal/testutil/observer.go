package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/taskmesh/core"
)

// RecordingObserver records lifecycle notifications as short strings such
// as "task.start:idea" or "task.end:idea:completed".
type RecordingObserver struct {
	mu      sync.Mutex
	events  []string
	outputs map[string]string
	review  *core.Review
}

// NewRecordingObserver creates an empty observer.
func NewRecordingObserver() *RecordingObserver {
	return &RecordingObserver{outputs: map[string]string{}}
}

// OnTaskStart implements core.TaskObserver.
func (o *RecordingObserver) OnTaskStart(ctx context.Context, task *core.Task, agent core.AgentInfo) context.Context {
	o.add(fmt.Sprintf("task.start:%s:%s", task.ID(), agent.Name))
	return ctx
}

// OnTaskEnd implements core.TaskObserver.
func (o *RecordingObserver) OnTaskEnd(_ context.Context, task *core.Task, state core.TaskState, output string, _ error) {
	o.mu.Lock()
	o.outputs[task.ID()] = output
	o.mu.Unlock()
	o.add(fmt.Sprintf("task.end:%s:%s", task.ID(), state))
}

// OnReviewStart implements core.TaskObserver.
func (o *RecordingObserver) OnReviewStart(ctx context.Context, _ string) context.Context {
	o.add("review.start")
	return ctx
}

// OnReviewEnd implements core.TaskObserver.
func (o *RecordingObserver) OnReviewEnd(_ context.Context, review *core.Review, _ error) {
	o.mu.Lock()
	o.review = review
	o.mu.Unlock()
	o.add("review.end")
}

func (o *RecordingObserver) add(ev string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, ev)
}

// Events returns a copy of the recorded notifications.
func (o *RecordingObserver) Events() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.events...)
}

// Output returns the output recorded for a finished task.
func (o *RecordingObserver) Output(taskID string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.outputs[taskID]
}

// Review returns the last reported review, or nil.
func (o *RecordingObserver) Review() *core.Review {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.review
}
