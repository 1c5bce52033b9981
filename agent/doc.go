// Package agent contains the two agent variants a pipeline is built from:
//
//  1. Worker: a persona backed by a model that executes exactly the task it
//     is handed, optionally calling its tools, and never delegates.
//  2. Coordinator: sequences the task list, delegates to the bound workers
//     (or executes directly, per its DelegationStrategy), invokes completion
//     handlers and finalizes the last output with a bounded QA pass.
//
// Both share the tool-calling loop in toolloop.go: the model is called until
// it answers without tool calls or the per-execution model call limit is
// reached. Recoverable tool errors (validation, unknown tool) are reported
// back to the model; execution errors abort the task.
package agent
