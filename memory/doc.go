// Package memory contains concrete implementations of the two memory tiers.
// The contracts (core.MemoryStore, core.MemoryLog, core.Record) reside in the
// core package; depend on those interfaces in your code and select an
// implementation at wiring time.
//
//   - InMemoryStore: the ephemeral per-run key/value scratchpad
//   - InMemoryLog: a process-local MemoryLog for tests and dry runs
//   - memory/sqlite: the durable MemoryLog backed by a SQLite file
package memory
