package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/logging"
	"github.com/hupe1980/taskmesh/memory"
	"github.com/hupe1980/taskmesh/tracing"
)

// ErrNoCoordinator is returned when Execute is called without a coordinator.
var ErrNoCoordinator = errors.New("coordinator is required")

// Options configures an Engine instance.
//
// Example:
//
//	eng := engine.New(func(o *engine.Options) {
//	    o.Logger = logger
//	    o.Callbacks = callbacks
//	})
type Options struct {
	// Logger provides structured logging. Defaults to NoOpLogger.
	Logger logging.Logger

	// Callbacks are fired on run and task lifecycle events. Optional.
	Callbacks *CallbackManager

	// Tracer opens the pipeline.run, task.<id> and review spans. Defaults to
	// the global tracer, a no-op until tracing.Init was called.
	Tracer trace.Tracer

	// NewStore creates the ephemeral MemoryStore of one run. Defaults to
	// memory.NewInMemoryStore.
	NewStore func() core.MemoryStore
}

// TaskRecord is the outcome of one task within a run.
type TaskRecord struct {
	TaskID   string         `json:"task_id"`
	Agent    string         `json:"agent"`
	State    core.TaskState `json:"state"`
	Output   string         `json:"output,omitempty"`
	Error    string         `json:"error,omitempty"`
	Duration time.Duration  `json:"duration"`
}

// Result is the outcome of one pipeline run. On failure Execute returns the
// partial result together with the error.
type Result struct {
	RunID    string            `json:"run_id"`
	Output   string            `json:"output"`
	Memory   map[string]string `json:"memory"`
	Tasks    []TaskRecord      `json:"tasks"`
	Review   *core.Review      `json:"review,omitempty"`
	Plan     *Plan             `json:"-"`
	Duration time.Duration     `json:"duration"`
}

// Engine is the thin pipeline driver. It builds the per-run MemoryStore,
// validates the dependency graph and hands the ordered task list to the
// coordinator. It never retries or reorders tasks.
type Engine struct {
	logger    logging.Logger
	callbacks *CallbackManager
	tracer    trace.Tracer
	newStore  func() core.MemoryStore
}

// New creates an Engine.
func New(optFns ...func(o *Options)) *Engine {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Tracer == nil {
		opts.Tracer = tracing.Tracer()
	}
	if opts.NewStore == nil {
		opts.NewStore = func() core.MemoryStore { return memory.NewInMemoryStore() }
	}

	return &Engine{
		logger:    opts.Logger,
		callbacks: opts.Callbacks,
		tracer:    opts.Tracer,
		newStore:  opts.NewStore,
	}
}

// Execute runs tasks in order under coordinator. inputs are the run inputs
// (user_prompt and any caller supplied values); they are readable by task
// templates and satisfy declared reads.
func (e *Engine) Execute(
	ctx context.Context,
	tasks []*core.Task,
	coordinator core.Coordinator,
	inputs map[string]string,
) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	result := &Result{RunID: runID, Memory: map[string]string{}}

	logger := e.runLogger(runID)

	ctx, span := tracing.StartSpan(ctx, e.tracer, "pipeline.run", map[string]string{"run_id": runID})
	span.SetInt("tasks", len(tasks))

	finish := func(err error) (*Result, error) {
		result.Duration = time.Since(start)
		if err != nil {
			logger.Error("pipeline.failed", "run_id", runID, "error", err.Error(), "duration_ms", result.Duration.Milliseconds())
			e.fire(ctx, logger, CallbackOnError, &CallbackContext{RunID: runID, Err: err})
		}
		tracing.EndSpan(span, err)
		return result, err
	}

	if coordinator == nil {
		return finish(ErrNoCoordinator)
	}
	span.WithAttributes(map[string]string{"coordinator": coordinator.Info().Name})

	plan, err := BuildPlan(tasks, inputs)
	if err != nil {
		return finish(err)
	}
	result.Plan = plan
	logger.Debug("pipeline.plan", "run_id", runID, "order", plan.Order, "edges", len(plan.Edges))

	if err := e.callbacks.ExecuteCallbacks(ctx, CallbackBeforeRun, &CallbackContext{RunID: runID, Agent: coordinator.Info().Name}); err != nil {
		return finish(err)
	}

	store := e.newStore()
	obs := newRunObserver(e, runID, logger)
	runCtx := core.NewRunContext(ctx, runID, inputs, store, obs, logger)

	logger.Info("pipeline.start", "run_id", runID, "coordinator", coordinator.Info().Name, "tasks", len(tasks))

	output, err := coordinator.RunPipeline(runCtx, tasks)

	result.Memory = store.Snapshot()
	result.Tasks = obs.Records()
	result.Review = obs.Review()

	if err != nil {
		return finish(err)
	}

	result.Output = output
	if result.Review != nil {
		span.SetInt("review.edits", result.Review.Edits())
	}

	logger.Info("pipeline.completed",
		"run_id", runID,
		"tasks", len(result.Tasks),
		"memory_keys", len(result.Memory),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	e.fire(ctx, logger, CallbackAfterRun, &CallbackContext{RunID: runID, Agent: coordinator.Info().Name, Output: output})

	return finish(nil)
}

func (e *Engine) runLogger(runID string) logging.Logger {
	if sl, ok := e.logger.(*logging.StructuredLogger); ok {
		return sl.WithComponent("engine").WithRun(runID)
	}
	return e.logger
}

// fire runs non-aborting callbacks; errors are logged.
func (e *Engine) fire(ctx context.Context, logger logging.Logger, t CallbackType, cc *CallbackContext) {
	if err := e.callbacks.ExecuteCallbacks(ctx, t, cc); err != nil {
		logger.Warn("callback.failed", "type", string(t), "task", cc.TaskID, "error", err.Error())
	}
}
