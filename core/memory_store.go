package core

import (
	"context"
	"time"
)

// MemoryStore is the ephemeral key/value scratchpad of one pipeline run.
// Tasks pass intermediate artifacts (idea, compliance_summary, ...) to later
// tasks through it. A store lives exactly one run and is never shared between
// runs, so implementations need no cross-run coordination.
type MemoryStore interface {
	// Set stores value under key, overwriting any previous value.
	Set(key, value string)
	// Get returns the value stored under key or def when absent. It never fails.
	Get(key, def string) string
	// Snapshot returns a copy of all key/value pairs.
	Snapshot() map[string]string
}

// Record is one entry of the durable MemoryLog.
type Record struct {
	ID        int64     `json:"id"`
	Topic     string    `json:"topic"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// MemoryLog is the durable, append-only record of run summaries shared by
// all runs and processes. Save and Recall are individually atomic.
type MemoryLog interface {
	// Save appends a record with a fresh monotonic id and the current time.
	Save(ctx context.Context, topic, content string) error
	// Recall returns up to limit records, newest (highest id) first. An empty
	// topic disables filtering.
	Recall(ctx context.Context, topic string, limit int) ([]Record, error)
}
