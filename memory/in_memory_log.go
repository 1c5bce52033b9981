package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/taskmesh/core"
)

// InMemoryLog is a process-local MemoryLog. It honours the same ordering and
// filtering contract as the durable log but forgets everything on exit.
type InMemoryLog struct {
	mu      sync.RWMutex
	nextID  int64
	records []core.Record
	now     func() time.Time
}

// NewInMemoryLog creates an empty log.
func NewInMemoryLog() *InMemoryLog {
	return &InMemoryLog{now: time.Now}
}

// Save appends a record with the next id.
func (l *InMemoryLog) Save(ctx context.Context, topic, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	l.records = append(l.records, core.Record{
		ID:        l.nextID,
		Topic:     topic,
		Content:   content,
		CreatedAt: l.now(),
	})
	return nil
}

// Recall returns up to limit records newest first, filtered by topic when set.
func (l *InMemoryLog) Recall(ctx context.Context, topic string, limit int) ([]core.Record, error) {
	if err := CheckLimit(limit); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]core.Record, 0, min(limit, len(l.records)))
	for i := len(l.records) - 1; i >= 0 && len(out) < limit; i-- {
		r := l.records[i]
		if topic != "" && r.Topic != topic {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}
