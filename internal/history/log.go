// Package history keeps the bounded, deduplicated log of past lookups.
package history

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// MaxEntries is the number of lookups kept.
const MaxEntries = 12

// Store is a durable medium for the history log.
type Store interface {
	Load(ctx context.Context) ([]weather.HistoryEntry, error)
	Save(ctx context.Context, entries []weather.HistoryEntry) error
}

// NewEntry builds the history entry for a successful lookup.
func NewEntry(b *weather.Bundle) weather.HistoryEntry {
	return weather.HistoryEntry{
		ID:          uuid.NewString(),
		Date:        b.FetchedAt,
		City:        b.Location.DisplayName(),
		Temperature: b.Current.Temperature,
		Condition:   b.Current.Condition,
	}
}

// Record removes any entry for the same city, prepends entry and keeps the
// newest MaxEntries. entries is not modified.
func Record(entries []weather.HistoryEntry, entry weather.HistoryEntry) []weather.HistoryEntry {
	out := make([]weather.HistoryEntry, 0, min(len(entries)+1, MaxEntries))
	out = append(out, entry)
	for _, e := range entries {
		if len(out) == MaxEntries {
			break
		}
		if e.City == entry.City {
			continue
		}
		out = append(out, e)
	}
	return out
}

// SortByDateDesc returns a copy of entries, most recent first.
func SortByDateDesc(entries []weather.HistoryEntry) []weather.HistoryEntry {
	out := make([]weather.HistoryEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// Log reads the store once and persists through one writer goroutine. Save
// never blocks: while a write is in flight only the newest snapshot is kept,
// so the store always ends with the latest history.
type Log struct {
	store  Store
	logger *slog.Logger

	mu      sync.Mutex
	written *sync.Cond
	latest  []weather.HistoryEntry
	queued  uint64 // snapshots accepted by Save
	saved   uint64 // snapshots superseded or attempted
	closed  bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}

	closeOnce sync.Once
}

// saveTimeout bounds a single write to the store.
const saveTimeout = 10 * time.Second

func NewLog(store Store, logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Log{
		store:  store,
		logger: logger,
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	l.written = sync.NewCond(&l.mu)
	go l.writer()
	return l
}

// Load returns the stored entries, most recent first. A storage failure is
// logged and yields an empty history.
func (l *Log) Load(ctx context.Context) []weather.HistoryEntry {
	entries, err := l.store.Load(ctx)
	if err != nil {
		l.logger.Error("history load failed", "error", err)
		return nil
	}
	return SortByDateDesc(entries)
}

// Save hands entries to the writer and returns immediately. Failures are
// logged by the writer; the caller's in-memory history is not rolled back.
func (l *Log) Save(entries []weather.HistoryEntry) {
	snapshot := make([]weather.HistoryEntry, len(entries))
	copy(snapshot, entries)

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		l.logger.Warn("history save after close dropped", "entries", len(snapshot))
		return
	}
	l.latest = snapshot
	l.queued++
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Flush blocks until the newest saved snapshot has been attempted.
func (l *Log) Flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for l.saved < l.queued {
		l.written.Wait()
	}
}

// Close writes any pending snapshot and stops the writer.
func (l *Log) Close() {
	l.closeOnce.Do(func() {
		l.mu.Lock()
		l.closed = true
		l.mu.Unlock()

		close(l.stop)
		<-l.done
	})
}

func (l *Log) writer() {
	defer close(l.done)
	for {
		select {
		case <-l.wake:
			l.writeLatest()
		case <-l.stop:
			l.writeLatest()
			return
		}
	}
}

func (l *Log) writeLatest() {
	l.mu.Lock()
	if l.saved == l.queued {
		l.mu.Unlock()
		return
	}
	entries, seq := l.latest, l.queued
	l.latest = nil
	l.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	if err := l.store.Save(ctx, entries); err != nil {
		l.logger.Error("history save failed", "entries", len(entries), "error", err)
	}
	cancel()

	l.mu.Lock()
	l.saved = seq
	l.written.Broadcast()
	l.mu.Unlock()
}
