package sqlite

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/memory"
)

var _ core.MemoryLog = (*Log)(nil)

func openTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "nested", "db", "memory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestOpen_CreatesDirectoryAndSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "memory.db")
	l, err := Open(path)
	require.NoError(t, err)
	defer l.Close()

	var name string
	err = l.db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='memory'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "memory", name)
	assert.Equal(t, path, l.Path())
}

func TestLog_SaveRecallOrderingAndFilter(t *testing.T) {
	ctx := context.Background()
	l := openTestLog(t)

	require.NoError(t, l.Save(ctx, "general", "one"))
	require.NoError(t, l.Save(ctx, "fintech", "two"))
	require.NoError(t, l.Save(ctx, "general", "three"))
	require.NoError(t, l.Save(ctx, "general", "four"))

	all, err := l.Recall(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i := 1; i < len(all); i++ {
		assert.Greater(t, all[i-1].ID, all[i].ID)
	}
	assert.Equal(t, "four", all[0].Content)

	general, err := l.Recall(ctx, "general", 2)
	require.NoError(t, err)
	require.Len(t, general, 2)
	assert.Equal(t, []string{"four", "three"}, []string{general[0].Content, general[1].Content})
	for _, r := range general {
		assert.Equal(t, "general", r.Topic)
		assert.WithinDuration(t, time.Now(), r.CreatedAt, time.Minute)
	}

	none, err := l.Recall(ctx, "unknown", 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLog_RecallLimits(t *testing.T) {
	ctx := context.Background()
	l := openTestLog(t)
	require.NoError(t, l.Save(ctx, "t", "x"))

	zero, err := l.Recall(ctx, "", 0)
	require.NoError(t, err)
	assert.Empty(t, zero)

	_, err = l.Recall(ctx, "", -1)
	assert.True(t, errors.Is(err, memory.ErrInvalidLimit))

	for _, limit := range []int{100_000_000, 1 << 62, math.MaxInt} {
		recs, err := l.Recall(ctx, "", limit)
		require.NoError(t, err, "limit %d", limit)
		assert.Len(t, recs, 1)
	}
}

func TestOpen_PathWithURIReservedCharacters(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "we?ird#dir%20", "memory.db")

	l, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, l.Save(ctx, "t", "x"))
	require.NoError(t, l.Close())

	_, err = os.Stat(path)
	require.NoError(t, err)

	reopened, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	recs, err := reopened.Recall(ctx, "t", 5)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestDataSourceName_Escapes(t *testing.T) {
	dsn, err := dataSourceName("/tmp/a?b#c%d/memory.db", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dsn, "file:///tmp/a%3Fb%23c%25d/memory.db?"), dsn)
	assert.Contains(t, dsn, "_pragma=busy_timeout(5000)")
}

func TestLog_RecallIdempotent(t *testing.T) {
	ctx := context.Background()
	l := openTestLog(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Save(ctx, "t", fmt.Sprintf("c%d", i)))
	}
	a, err := l.Recall(ctx, "t", 2)
	require.NoError(t, err)
	b, err := l.Recall(ctx, "t", 2)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestLog_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "memory.db")

	l1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, l1.Save(ctx, "general", "persisted"))
	require.NoError(t, l1.Close())

	l2, err := Open(path)
	require.NoError(t, err)
	defer l2.Close()
	recs, err := l2.Recall(ctx, "general", 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "persisted", recs[0].Content)
}

func TestLog_ConcurrentSavesFromTwoHandles(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "memory.db")

	runA, err := Open(path)
	require.NoError(t, err)
	defer runA.Close()
	runB, err := Open(path)
	require.NoError(t, err)
	defer runB.Close()

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, 2*n)
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			errs <- runA.Save(ctx, "a", fmt.Sprintf("a-%d", i))
		}(i)
		go func(i int) {
			defer wg.Done()
			errs <- runB.Save(ctx, "b", fmt.Sprintf("b-%d", i))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	a, err := runA.Recall(ctx, "a", 100)
	require.NoError(t, err)
	b, err := runB.Recall(ctx, "b", 100)
	require.NoError(t, err)
	assert.Len(t, a, n)
	assert.Len(t, b, n)

	all, err := runA.Recall(ctx, "", 100)
	require.NoError(t, err)
	seen := map[int64]bool{}
	for _, r := range all {
		assert.False(t, seen[r.ID], "duplicate id %d", r.ID)
		seen[r.ID] = true
	}
	assert.Len(t, all, 2*n)
}

func TestLog_SaveFailsOnClosedDB(t *testing.T) {
	l, err := Open(filepath.Join(t.TempDir(), "memory.db"))
	require.NoError(t, err)
	require.NoError(t, l.Close())

	err = l.Save(context.Background(), "t", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "memory log save")
}

func TestUnixRoundTrip(t *testing.T) {
	now := time.Unix(1700000000, 250_000_000)
	assert.WithinDuration(t, now, fromUnix(toUnix(now)), time.Millisecond)
}
