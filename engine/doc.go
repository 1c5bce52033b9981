// Package engine implements the pipeline executor of taskmesh.
//
// The Engine is a thin driver: for every Execute call it
//
//  1. validates the ordered task list and builds the dependency Plan from
//     the declared reads and writes (BuildPlan / ValidateDependencies),
//  2. creates the run's ephemeral MemoryStore and a core.RunContext that
//     carries it explicitly,
//  3. hands the tasks to the Coordinator's RunPipeline,
//  4. collects the final output, the memory snapshot, per-task records and
//     the QA review into a Result.
//
// Tasks are never retried or reordered. A failing task aborts the run; the
// partial Result (memory snapshot and task records so far) is returned
// together with the error.
//
// # Observability
//
// A run opens a "pipeline.run" span, each task a "task.<id>" child span and
// the QA pass a "review" span (see package tracing). Lifecycle events are
// logged with dotted names (pipeline.start, task.completed, review.edit) and
// can be hooked with a CallbackManager:
//
//	callbacks := engine.NewCallbackManager()
//	callbacks.RegisterCallback(engine.NewFunctionCallback(engine.CallbackAfterTask,
//	    func(ctx context.Context, cc *engine.CallbackContext) error {
//	        fmt.Printf("%s finished\n", cc.TaskID)
//	        return nil
//	    }))
//
//	eng := engine.New(func(o *engine.Options) { o.Callbacks = callbacks })
//	res, err := eng.Execute(ctx, tasks, coordinator, map[string]string{"user_prompt": prompt})
package engine
