package engine

import (
	"context"
	"fmt"
	"sync"
)

// CallbackType defines the lifecycle points where callbacks can be executed.
//
// Available callback types:
//   - BeforeRun/AfterRun: around one pipeline run
//   - BeforeTask/AfterTask: around each task execution
//   - OnReview: after the QA pass finished
//   - OnError: when a task or the run fails
//
// Callbacks are executed synchronously in registration order. An error from
// a BeforeRun callback aborts the run before any task starts; errors from
// the other hooks are logged and do not change the outcome of the run.
type CallbackType string

const (
	// CallbackBeforeRun is triggered after validation, before the first task.
	CallbackBeforeRun CallbackType = "before_run"

	// CallbackAfterRun is triggered after a successful run.
	CallbackAfterRun CallbackType = "after_run"

	// CallbackBeforeTask is triggered when a task transitions to running.
	CallbackBeforeTask CallbackType = "before_task"

	// CallbackAfterTask is triggered when a task completed.
	CallbackAfterTask CallbackType = "after_task"

	// CallbackOnReview is triggered when the QA pass finished.
	CallbackOnReview CallbackType = "on_review"

	// CallbackOnError is triggered when a task or the run fails.
	CallbackOnError CallbackType = "on_error"
)

// CallbackContext carries the information a callback needs.
type CallbackContext struct {
	RunID  string
	TaskID string
	Agent  string

	// CallbackType indicates which hook triggered this execution.
	CallbackType CallbackType

	// Output is the task output (AfterTask) or final report (AfterRun).
	Output string

	// Err is set for OnError.
	Err error

	// Metadata provides extensible storage for custom callback data.
	Metadata map[string]any
}

// Callback defines the interface for execution lifecycle hooks.
//
// Implementations should be fast: callbacks run synchronously on the run's
// goroutine and block the pipeline.
type Callback interface {
	// Type returns the callback type this implementation handles.
	Type() CallbackType

	// Execute performs the callback logic with the provided context.
	Execute(ctx context.Context, callbackCtx *CallbackContext) error
}

// FunctionCallback wraps a function as a callback implementation.
//
// Example:
//
//	cb := NewFunctionCallback(
//	    CallbackAfterTask,
//	    func(ctx context.Context, cc *CallbackContext) error {
//	        log.Printf("task %s done (%d chars)", cc.TaskID, len(cc.Output))
//	        return nil
//	    },
//	)
type FunctionCallback struct {
	callbackType CallbackType
	fn           func(ctx context.Context, callbackCtx *CallbackContext) error
}

// NewFunctionCallback creates a new function-based callback.
func NewFunctionCallback(
	callbackType CallbackType,
	fn func(ctx context.Context, callbackCtx *CallbackContext) error,
) *FunctionCallback {
	return &FunctionCallback{
		callbackType: callbackType,
		fn:           fn,
	}
}

// Type returns the callback type this function handles.
func (c *FunctionCallback) Type() CallbackType {
	return c.callbackType
}

// Execute calls the wrapped function with the provided context.
func (c *FunctionCallback) Execute(ctx context.Context, callbackCtx *CallbackContext) error {
	return c.fn(ctx, callbackCtx)
}

// CallbackManager is the registry of callbacks consulted by the engine.
// Registration and execution are safe for concurrent use.
type CallbackManager struct {
	mu        sync.RWMutex
	callbacks map[CallbackType][]Callback
}

// NewCallbackManager creates an empty callback manager.
func NewCallbackManager() *CallbackManager {
	return &CallbackManager{
		callbacks: make(map[CallbackType][]Callback),
	}
}

// RegisterCallback adds a callback. Multiple callbacks per type run in
// registration order.
func (cm *CallbackManager) RegisterCallback(callback Callback) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	callbackType := callback.Type()
	cm.callbacks[callbackType] = append(cm.callbacks[callbackType], callback)
}

// ExecuteCallbacks executes all callbacks registered for callbackType. The
// first error stops execution and is returned.
func (cm *CallbackManager) ExecuteCallbacks(
	ctx context.Context,
	callbackType CallbackType,
	callbackCtx *CallbackContext,
) error {
	if cm == nil {
		return nil
	}

	cm.mu.RLock()
	callbacks := append([]Callback(nil), cm.callbacks[callbackType]...)
	cm.mu.RUnlock()

	callbackCtx.CallbackType = callbackType
	for _, callback := range callbacks {
		if err := callback.Execute(ctx, callbackCtx); err != nil {
			return fmt.Errorf("%s callback: %w", callbackType, err)
		}
	}

	return nil
}

// LoggingCallback forwards lifecycle events to a logging function.
//
// Example:
//
//	callback := NewLoggingCallback(CallbackAfterTask, func(msg string) {
//	    log.Printf("[ENGINE] %s", msg)
//	})
type LoggingCallback struct {
	callbackType CallbackType
	logger       func(message string)
}

// NewLoggingCallback creates a new logging callback.
func NewLoggingCallback(callbackType CallbackType, logger func(message string)) *LoggingCallback {
	return &LoggingCallback{
		callbackType: callbackType,
		logger:       logger,
	}
}

// Type returns the callback type this logger handles.
func (c *LoggingCallback) Type() CallbackType {
	return c.callbackType
}

// Execute logs the event with run and task information.
func (c *LoggingCallback) Execute(_ context.Context, callbackCtx *CallbackContext) error {
	if c.logger == nil {
		return nil
	}
	message := fmt.Sprintf("[%s] run=%s task=%s agent=%s",
		c.callbackType, callbackCtx.RunID, callbackCtx.TaskID, callbackCtx.Agent)
	if callbackCtx.Err != nil {
		message += " error=" + callbackCtx.Err.Error()
	}
	c.logger(message)
	return nil
}
