// Package core provides the foundational domain types, interfaces and execution
// contexts used by taskmesh. It defines the core abstractions for:
//
//   - Agents (Worker and Coordinator variants that turn a task description into text)
//   - Tasks (immutable units of work with declared memory reads/writes and a completion handler)
//   - The task state machine (Pending -> Running -> Completed | Failed)
//   - MemoryStore (ephemeral per-run scratchpad) and MemoryLog (durable run summaries)
//   - RunContext / ToolContext (scoped execution and tool sandboxing)
//
// The package keeps implementation concerns (persistence, pipeline driving,
// concrete agents) out of scope, exposing small interfaces so custom backends
// can be plugged in.
package core
