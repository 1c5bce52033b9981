// Package sqlite implements the durable MemoryLog on a single SQLite file
// using the pure Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/logging"
	"github.com/hupe1980/taskmesh/memory"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS memory (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	topic TEXT,
	content TEXT NOT NULL,
	created_at REAL
)`

// Options configures a Log.
type Options struct {
	// BusyTimeout is how long a writer waits on a locked database.
	BusyTimeout time.Duration
	Logger      logging.Logger
}

// Log is the durable MemoryLog. Every Save and Recall is a single statement,
// so concurrent writers from several runs or processes never interleave a
// record. Cross-run ordering follows the AUTOINCREMENT id.
type Log struct {
	db     *sql.DB
	path   string
	logger logging.Logger
	now    func() time.Time
}

// Open creates the parent directory of path if needed, opens the database in
// WAL mode and ensures the memory table exists.
func Open(path string, optFns ...func(o *Options)) (*Log, error) {
	opts := Options{
		BusyTimeout: 5 * time.Second,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db dir: %w", err)
		}
	}

	dsn, err := dataSourceName(path, opts.BusyTimeout)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	opts.Logger.Debug("memory.log.opened", "path", path)

	return &Log{db: db, path: path, logger: opts.Logger, now: time.Now}, nil
}

// dataSourceName builds a file: URI for path. The path is made absolute and
// escaped so '?', '#' and '%' stay part of the file name.
func dataSourceName(path string, busyTimeout time.Duration) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve db path: %w", err)
	}
	u := url.URL{
		Scheme:   "file",
		Path:     filepath.ToSlash(abs),
		RawQuery: fmt.Sprintf("_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", busyTimeout.Milliseconds()),
	}
	return u.String(), nil
}

// Path returns the database file path.
func (l *Log) Path() string { return l.path }

// Save appends a record.
func (l *Log) Save(ctx context.Context, topic, content string) error {
	res, err := l.db.ExecContext(ctx,
		`INSERT INTO memory(topic, content, created_at) VALUES(?, ?, ?)`,
		topic, content, toUnix(l.now()))
	if err != nil {
		return fmt.Errorf("memory log save: %w", err)
	}
	id, _ := res.LastInsertId()
	l.logger.Debug("memory.log.saved", "id", id, "topic", topic, "bytes", len(content))
	return nil
}

// Recall returns up to limit records ordered by id descending. An empty topic
// disables the filter.
func (l *Log) Recall(ctx context.Context, topic string, limit int) ([]core.Record, error) {
	if err := memory.CheckLimit(limit); err != nil {
		return nil, err
	}
	if limit == 0 {
		return []core.Record{}, nil
	}

	var (
		rows *sql.Rows
		err  error
	)
	if topic != "" {
		rows, err = l.db.QueryContext(ctx,
			`SELECT id, topic, content, created_at FROM memory WHERE topic = ? ORDER BY id DESC LIMIT ?`,
			topic, limit)
	} else {
		rows, err = l.db.QueryContext(ctx,
			`SELECT id, topic, content, created_at FROM memory ORDER BY id DESC LIMIT ?`,
			limit)
	}
	if err != nil {
		return nil, fmt.Errorf("memory log recall: %w", err)
	}
	defer rows.Close()

	out := []core.Record{}
	for rows.Next() {
		var (
			r       core.Record
			t       sql.NullString
			created sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &t, &r.Content, &created); err != nil {
			return nil, fmt.Errorf("memory log scan: %w", err)
		}
		r.Topic = t.String
		if created.Valid {
			r.CreatedAt = fromUnix(created.Float64)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("memory log recall: %w", err)
	}
	return out, nil
}

// Close releases the database handle.
func (l *Log) Close() error {
	return l.db.Close()
}

func toUnix(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func fromUnix(f float64) time.Time {
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9))
}
