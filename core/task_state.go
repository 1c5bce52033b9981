package core

import (
	"errors"
	"fmt"
)

// TaskState is the lifecycle state of a task within one run.
type TaskState string

const (
	TaskPending   TaskState = "pending"
	TaskRunning   TaskState = "running"
	TaskCompleted TaskState = "completed"
	TaskFailed    TaskState = "failed"
)

// ErrInvalidTransition is returned for state changes outside the lifecycle.
var ErrInvalidTransition = errors.New("invalid task state transition")

// Transition validates a state change for the named task and returns the new state.
func Transition(taskID string, from, to TaskState) (TaskState, error) {
	if !isAllowedTransition(from, to) {
		return from, fmt.Errorf("%w for %q: %s -> %s", ErrInvalidTransition, taskID, from, to)
	}
	return to, nil
}

func isAllowedTransition(from, to TaskState) bool {
	switch from {
	case TaskPending:
		return to == TaskRunning
	case TaskRunning:
		return to == TaskCompleted || to == TaskFailed
	default:
		return false
	}
}

// Terminal reports whether no further transitions are possible.
func (s TaskState) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// TaskError reports a failed task. It aborts the run.
type TaskError struct {
	TaskID string
	Agent  string
	Err    error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %q (agent %s) failed: %v", e.TaskID, e.Agent, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }
