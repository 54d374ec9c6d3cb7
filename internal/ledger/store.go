package ledger

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// maxLineBytes bounds a single persisted record. Content is conversational
// text; anything beyond this is a corrupt or hostile line. Append rejects
// records over the bound so an acknowledged write is always readable.
const maxLineBytes = 1 << 20

// Options configures a Store.
type Options struct {
	// SyncWrites forces an fsync after every append. Slower, but an
	// acknowledged append survives power loss, not just process crash.
	SyncWrites bool

	// Logger receives store diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// Stats describes one thread's partition.
type Stats struct {
	Exists     bool      `json:"exists"`
	EventCount int       `json:"event_count"`
	SizeBytes  int64     `json:"file_size_bytes"`
	FirstEvent time.Time `json:"first_event,omitzero"`
	LastEvent  time.Time `json:"last_event,omitzero"`
}

// threadIndex tracks per-partition counters so Stats never needs a full
// scan after the first one. Guarded by the thread's write lock plus idxMu.
type threadIndex struct {
	count int
	bytes int64
	first time.Time
	last  time.Time
}

// Store is the durable append-only ledger, one JSONL partition per thread.
type Store struct {
	dir   string // <data>/threads
	opts  Options
	guard *threadGuard
	log   *slog.Logger

	idxMu sync.Mutex
	idx   map[string]*threadIndex
}

// Open creates or opens the ledger root at dir. The threads subdirectory is
// created if missing. This function is idempotent.
func Open(dir string, opts Options) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("open ledger: data directory required")
	}
	threads := filepath.Join(dir, "threads")
	if err := os.MkdirAll(threads, 0o755); err != nil {
		return nil, storageErr("", "create threads directory", err)
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		dir:   threads,
		opts:  opts,
		guard: newThreadGuard(),
		log:   log.With("component", "ledger"),
		idx:   make(map[string]*threadIndex),
	}, nil
}

// path returns the partition file for a thread.
func (s *Store) path(threadID string) string {
	return filepath.Join(s.dir, threadID+".jsonl")
}

// Append validates, stamps, and durably appends one event to a thread's
// partition. From any reader's perspective the event is either fully visible
// or not visible at all.
//
// Appends to the same thread are serialized in arrival order; appends to
// different threads proceed independently.
func (s *Store) Append(ctx context.Context, threadID string, ev Event) (Event, error) {
	if !ValidThreadID(threadID) {
		return Event{}, invalidThreadErr(threadID)
	}
	if err := ev.Validate(); err != nil {
		return Event{}, &Error{Code: ErrCodeInvalidThread, ThreadID: threadID,
			Message: "invalid event", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return Event{}, fmt.Errorf("append: %w", err)
	}

	ev.stamp(time.Now())

	line, err := json.Marshal(ev)
	if err != nil {
		return Event{}, fmt.Errorf("append: marshal event: %w", err)
	}
	line = append(line, '\n')
	if len(line) > maxLineBytes {
		return Event{}, &Error{Code: ErrCodeInvalidThread, ThreadID: threadID,
			Message: fmt.Sprintf("record is %d bytes, limit is %d", len(line), maxLineBytes)}
	}

	unlock := s.guard.lock(threadID)
	defer unlock()

	f, err := os.OpenFile(s.path(threadID), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return Event{}, storageErr(threadID, "open partition for append", err)
	}
	defer f.Close()

	// One Write call per record: with O_APPEND the kernel commits the whole
	// line or nothing, so concurrent partitions and crashed writers cannot
	// tear a prior record.
	if _, err := f.Write(line); err != nil {
		return Event{}, storageErr(threadID, "append record", err)
	}
	if s.opts.SyncWrites {
		if err := f.Sync(); err != nil {
			return Event{}, storageErr(threadID, "sync partition", err)
		}
	}

	s.bumpIndex(threadID, ev, int64(len(line)))
	s.log.Debug("event appended",
		"thread", threadID, "event", ev.ID, "role", ev.Role, "source", ev.Source)
	return ev, nil
}

// ReadAll returns a thread's full event sequence, oldest first.
// An unknown or empty thread returns an empty slice, not an error.
func (s *Store) ReadAll(ctx context.Context, threadID string) ([]Event, error) {
	if !ValidThreadID(threadID) {
		return nil, invalidThreadErr(threadID)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("read all: %w", err)
	}

	f, err := os.Open(s.path(threadID))
	if err != nil {
		if os.IsNotExist(err) {
			return []Event{}, nil
		}
		return nil, storageErr(threadID, "open partition", err)
	}
	defer f.Close()

	var events []Event
	decode := func(raw string) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return
		}
		var ev Event
		if err := json.Unmarshal([]byte(raw), &ev); err != nil {
			// A torn or corrupt line (crash mid-write) loses only itself;
			// prior records are intact and later writers re-align on the
			// next newline.
			s.log.Warn("skipping unparseable ledger line", "thread", threadID, "err", err)
			return
		}
		events = append(events, ev)
	}

	// Lines beyond maxLineBytes are discarded like torn ones: the rest of
	// the partition stays readable. Append never produces such a line, so
	// this only fires on external corruption.
	r := bufio.NewReaderSize(f, 64*1024)
	var buf []byte
	skipping := false
	for {
		chunk, err := r.ReadSlice('\n')
		if !skipping {
			buf = append(buf, chunk...)
			if len(buf) > maxLineBytes {
				s.log.Warn("skipping over-length ledger line", "thread", threadID, "bytes", len(buf))
				skipping = true
				buf = buf[:0]
			}
		}
		switch {
		case err == nil:
			if skipping {
				skipping = false
				continue
			}
			decode(string(buf))
			buf = buf[:0]
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if !skipping {
				decode(string(buf))
			}
			if events == nil {
				events = []Event{}
			}
			return events, nil
		default:
			return nil, storageErr(threadID, "scan partition", err)
		}
	}
}

// ReadTail returns the most recent n events, still in ascending
// chronological order. n <= 0 returns the full sequence.
func (s *Store) ReadTail(ctx context.Context, threadID string, n int) ([]Event, error) {
	events, err := s.ReadAll(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(events) > n {
		events = events[len(events)-n:]
	}
	return events, nil
}

// Stats reports partition statistics. After the first call for a thread the
// answer comes from the incremental index; no rescan occurs until restart.
func (s *Store) Stats(ctx context.Context, threadID string) (Stats, error) {
	if !ValidThreadID(threadID) {
		return Stats{}, invalidThreadErr(threadID)
	}

	s.idxMu.Lock()
	ix, ok := s.idx[threadID]
	s.idxMu.Unlock()
	if ok {
		return Stats{
			Exists:     true,
			EventCount: ix.count,
			SizeBytes:  ix.bytes,
			FirstEvent: ix.first,
			LastEvent:  ix.last,
		}, nil
	}

	// Seed the index with one scan under the thread's write lock so a
	// concurrent append cannot be double counted.
	unlock := s.guard.lock(threadID)
	defer unlock()

	fi, err := os.Stat(s.path(threadID))
	if err != nil {
		if os.IsNotExist(err) {
			return Stats{}, nil
		}
		return Stats{}, storageErr(threadID, "stat partition", err)
	}

	events, err := s.ReadAll(ctx, threadID)
	if err != nil {
		return Stats{}, err
	}
	ix = &threadIndex{count: len(events), bytes: fi.Size()}
	if len(events) > 0 {
		ix.first = events[0].Timestamp
		ix.last = events[len(events)-1].Timestamp
	}
	s.idxMu.Lock()
	s.idx[threadID] = ix
	s.idxMu.Unlock()

	return Stats{
		Exists:     true,
		EventCount: ix.count,
		SizeBytes:  ix.bytes,
		FirstEvent: ix.first,
		LastEvent:  ix.last,
	}, nil
}

// Purge removes a thread's entire partition. Privileged and destructive;
// reachable only through the admin capability path.
func (s *Store) Purge(ctx context.Context, threadID string) error {
	if !ValidThreadID(threadID) {
		return invalidThreadErr(threadID)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("purge: %w", err)
	}

	unlock := s.guard.lock(threadID)
	defer unlock()

	if err := os.Remove(s.path(threadID)); err != nil && !os.IsNotExist(err) {
		return storageErr(threadID, "remove partition", err)
	}
	s.idxMu.Lock()
	delete(s.idx, threadID)
	s.idxMu.Unlock()

	s.log.Warn("thread partition purged", "thread", threadID)
	return nil
}

// Threads enumerates all thread IDs with a partition on disk.
// The listing is an eventually-consistent snapshot, not a transaction.
func (s *Store) Threads(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("threads: %w", err)
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, storageErr("", "list threads directory", err)
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		id := strings.TrimSuffix(name, ".jsonl")
		if ValidThreadID(id) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// bumpIndex folds one appended event into the thread's counters.
// Only called while holding the thread's write lock.
func (s *Store) bumpIndex(threadID string, ev Event, n int64) {
	s.idxMu.Lock()
	defer s.idxMu.Unlock()
	ix, ok := s.idx[threadID]
	if !ok {
		// Never scanned; leave seeding to the next Stats call. Tracking
		// from a partial baseline would undercount earlier records.
		return
	}
	ix.count++
	ix.bytes += n
	if ix.first.IsZero() {
		ix.first = ev.Timestamp
	}
	ix.last = ev.Timestamp
}
