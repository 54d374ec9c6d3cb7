package ledger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), Options{})
	require.NoError(t, err, "failed to open store")
	return s
}

func userEvent(content string) Event {
	return Event{Role: RoleUser, Source: SourceEDrive, Content: content}
}

func TestAppendReadAllOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	thread := NewThreadID()

	const n = 12
	for i := 0; i < n; i++ {
		_, err := s.Append(ctx, thread, userEvent(fmt.Sprintf("message %d", i)))
		require.NoError(t, err, "append %d failed", i)
	}

	events, err := s.ReadAll(ctx, thread)
	require.NoError(t, err)
	require.Len(t, events, n)
	for i, ev := range events {
		assert.Equal(t, fmt.Sprintf("message %d", i), ev.Content, "append order violated at %d", i)
		assert.NotEmpty(t, ev.ID, "event_id should be assigned")
		assert.False(t, ev.Timestamp.IsZero(), "timestamp should be assigned")
	}
}

func TestReadAllUnknownThread(t *testing.T) {
	s := newTestStore(t)

	events, err := s.ReadAll(context.Background(), NewThreadID())
	require.NoError(t, err, "unknown thread must not be an error")
	assert.Empty(t, events)
}

func TestReadTailAscending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	thread := NewThreadID()

	for i := 0; i < 10; i++ {
		_, err := s.Append(ctx, thread, userEvent(fmt.Sprintf("m%d", i)))
		require.NoError(t, err)
	}

	tail, err := s.ReadTail(ctx, thread, 3)
	require.NoError(t, err)
	require.Len(t, tail, 3)
	assert.Equal(t, "m7", tail[0].Content)
	assert.Equal(t, "m9", tail[2].Content, "tail must stay in ascending order")

	all, err := s.ReadTail(ctx, thread, 0)
	require.NoError(t, err)
	assert.Len(t, all, 10, "n <= 0 returns the full sequence")
}

func TestAppendRejectsInvalidInput(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		thread string
		event  Event
	}{
		{"empty thread", "", userEvent("x")},
		{"path escape", "../../etc/passwd", userEvent("x")},
		{"slash in thread", "a/b", userEvent("x")},
		{"unknown role", NewThreadID(), Event{Role: "wizard", Source: SourceEDrive}},
		{"unknown source", NewThreadID(), Event{Role: RoleUser, Source: "myspace"}},
		{"intensity out of range", NewThreadID(), Event{
			Role: RoleUser, Source: SourceEDrive,
			Emotion: &EmotionState{Primary: "joy", Intensity: 1.5},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Append(ctx, tt.thread, tt.event)
			require.Error(t, err)
			assert.True(t, IsInvalidThread(err), "expected INVALID_THREAD, got %v", err)
		})
	}
}

func TestAppendPreservesCallerIDAndTimestamp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	thread := NewThreadID()

	ts := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	ev := userEvent("pinned")
	ev.ID = "evt-pinned"
	ev.Timestamp = ts

	stored, err := s.Append(ctx, thread, ev)
	require.NoError(t, err)
	assert.Equal(t, "evt-pinned", stored.ID)
	assert.True(t, stored.Timestamp.Equal(ts))
}

func TestConcurrentAppendsSameThread(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	thread := NewThreadID()

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Append(ctx, thread, userEvent(fmt.Sprintf("c%d", i)))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	events, err := s.ReadAll(ctx, thread)
	require.NoError(t, err)
	require.Len(t, events, n, "no event may be lost or duplicated")

	seen := make(map[string]bool, n)
	for _, ev := range events {
		assert.False(t, seen[ev.Content], "duplicate record %q", ev.Content)
		seen[ev.Content] = true
	}
}

func TestConcurrentAppendsDistinctThreads(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const threads = 8
	const perThread = 10
	ids := make([]string, threads)
	for i := range ids {
		ids[i] = NewThreadID()
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for j := 0; j < perThread; j++ {
				if _, err := s.Append(ctx, id, userEvent(fmt.Sprintf("%s-%d", id, j))); err != nil {
					t.Errorf("append to %s: %v", id, err)
					return
				}
			}
		}(id)
	}
	wg.Wait()

	for _, id := range ids {
		events, err := s.ReadAll(ctx, id)
		require.NoError(t, err)
		assert.Len(t, events, perThread, "thread %s", id)
	}
}

func TestStatsIncrementalAndIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	thread := NewThreadID()

	st, err := s.Stats(ctx, thread)
	require.NoError(t, err)
	assert.False(t, st.Exists)
	assert.Zero(t, st.EventCount)

	for i := 0; i < 5; i++ {
		_, err := s.Append(ctx, thread, userEvent(fmt.Sprintf("m%d", i)))
		require.NoError(t, err)
	}

	st1, err := s.Stats(ctx, thread)
	require.NoError(t, err)
	assert.True(t, st1.Exists)
	assert.Equal(t, 5, st1.EventCount)
	assert.Positive(t, st1.SizeBytes)
	assert.False(t, st1.FirstEvent.IsZero())
	assert.False(t, st1.LastEvent.Before(st1.FirstEvent))

	// Idempotence: no intervening writes, identical answer.
	st2, err := s.Stats(ctx, thread)
	require.NoError(t, err)
	assert.Equal(t, st1, st2)

	// Index path: one more append must be reflected without a rescan.
	_, err = s.Append(ctx, thread, userEvent("m5"))
	require.NoError(t, err)
	st3, err := s.Stats(ctx, thread)
	require.NoError(t, err)
	assert.Equal(t, 6, st3.EventCount)
	assert.Greater(t, st3.SizeBytes, st1.SizeBytes)
}

func TestTornTrailingLineIsSkipped(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	thread := NewThreadID()

	for i := 0; i < 3; i++ {
		_, err := s.Append(ctx, thread, userEvent(fmt.Sprintf("m%d", i)))
		require.NoError(t, err)
	}

	// Simulate a crash mid-write: a partial record with no closing brace.
	f, err := os.OpenFile(filepath.Join(s.dir, thread+".jsonl"), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"event_id":"torn","timestamp":"2026-`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	events, err := s.ReadAll(ctx, thread)
	require.NoError(t, err, "a torn line must not corrupt prior records")
	assert.Len(t, events, 3)
}

func TestAppendRejectsOversizedRecord(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	thread := NewThreadID()

	_, err := s.Append(ctx, thread, userEvent("small"))
	require.NoError(t, err)

	// A record over the line bound must be refused up front; acknowledging
	// it would leave the partition readable only up to this line.
	_, err = s.Append(ctx, thread, userEvent(strings.Repeat("a", maxLineBytes+1)))
	require.Error(t, err)
	assert.True(t, IsInvalidThread(err), "oversized input is a caller error, not a storage failure")

	events, err := s.ReadAll(ctx, thread)
	require.NoError(t, err, "a rejected append must leave the partition readable")
	require.Len(t, events, 1)
	assert.Equal(t, "small", events[0].Content)
}

func TestOverlengthLineIsSkippedOnRead(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	thread := NewThreadID()

	for i := 0; i < 2; i++ {
		_, err := s.Append(ctx, thread, userEvent(fmt.Sprintf("m%d", i)))
		require.NoError(t, err)
	}

	// External corruption: a line no writer of ours could have produced.
	f, err := os.OpenFile(filepath.Join(s.dir, thread+".jsonl"), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(strings.Repeat("a", maxLineBytes+10) + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = s.Append(ctx, thread, userEvent("m2"))
	require.NoError(t, err)

	events, err := s.ReadAll(ctx, thread)
	require.NoError(t, err, "an over-length line loses only itself")
	require.Len(t, events, 3)
	assert.Equal(t, "m2", events[2].Content, "records after the bad line survive")
}

func TestPurgeRemovesPartition(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	thread := NewThreadID()

	_, err := s.Append(ctx, thread, userEvent("doomed"))
	require.NoError(t, err)

	require.NoError(t, s.Purge(ctx, thread))

	events, err := s.ReadAll(ctx, thread)
	require.NoError(t, err)
	assert.Empty(t, events)

	st, err := s.Stats(ctx, thread)
	require.NoError(t, err)
	assert.False(t, st.Exists)

	// Purging an already-absent thread is a no-op.
	require.NoError(t, s.Purge(ctx, thread))
}

func TestThreadsEnumeration(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, b := NewThreadID(), NewThreadID()
	_, err := s.Append(ctx, a, userEvent("x"))
	require.NoError(t, err)
	_, err = s.Append(ctx, b, userEvent("y"))
	require.NoError(t, err)

	ids, err := s.Threads(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a, b}, ids)
}

func TestSyncWritesOption(t *testing.T) {
	s, err := Open(t.TempDir(), Options{SyncWrites: true})
	require.NoError(t, err)

	_, err = s.Append(context.Background(), NewThreadID(), userEvent("durable"))
	require.NoError(t, err)
}
