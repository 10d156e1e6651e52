package persist

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/zeebo/blake3"

	"github.com/1broseidon/docktile/internal/layout"
)

// DefaultDebounce is the delay between the last change and the write.
const DefaultDebounce = 250 * time.Millisecond

// Saver writes snapshots in the background, coalescing bursts of changes
// into one write. Writes whose bytes match the last stored blob are
// skipped. A crash inside the debounce window loses the pending snapshot.
type Saver struct {
	adapter *Adapter
	logger  *slog.Logger

	// wmu orders writes so an older snapshot never lands after a newer one.
	wmu     sync.Mutex
	written uint64

	mu       sync.Mutex
	delay    time.Duration
	timer    *time.Timer
	pending  *layout.Snapshot
	seq      uint64
	lastHash [32]byte
	hasLast  bool
	closed   bool
	writes   int
	skipped  int
	failed   bool
}

// NewSaver returns a saver writing through a. A zero delay means
// DefaultDebounce.
func NewSaver(a *Adapter, delay time.Duration, logger *slog.Logger) *Saver {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Saver{adapter: a, delay: delay, logger: logger}
}

// SetDelay changes the debounce window for subsequent schedules.
func (s *Saver) SetDelay(d time.Duration) {
	if d <= 0 {
		d = DefaultDebounce
	}
	s.mu.Lock()
	s.delay = d
	s.mu.Unlock()
}

// Schedule queues snap for writing after the debounce window. A later call
// inside the window replaces it.
func (s *Saver) Schedule(snap layout.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.pending = &snap
	s.seq++
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, func() {
		if err := s.Flush(context.Background()); err != nil {
			s.logger.Warn("layout save failed", "key", s.adapter.Key(), "error", err)
		}
	})
}

// Flush writes the pending snapshot now, if any.
func (s *Saver) Flush(ctx context.Context) error {
	s.mu.Lock()
	snap, seq := s.pending, s.seq
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	if snap == nil {
		return nil
	}
	return s.write(ctx, *snap, seq)
}

func (s *Saver) write(ctx context.Context, snap layout.Snapshot, seq uint64) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if seq <= s.written {
		return nil
	}
	data, err := s.adapter.Encode(snap)
	if err != nil {
		return err
	}
	sum := blake3.Sum256(data)

	s.mu.Lock()
	if s.hasLast && sum == s.lastHash {
		s.written = seq
		s.skipped++
		s.mu.Unlock()
		s.logger.Debug("layout unchanged, skipping write", "key", s.adapter.Key())
		return nil
	}
	s.mu.Unlock()

	if err := s.adapter.store.Put(ctx, s.adapter.Key(), data); err != nil {
		s.mu.Lock()
		s.failed = true
		s.mu.Unlock()
		return err
	}

	s.written = seq
	s.mu.Lock()
	s.lastHash = sum
	s.hasLast = true
	s.failed = false
	s.writes++
	s.mu.Unlock()
	s.logger.Debug("layout saved", "key", s.adapter.Key(), "bytes", len(data), "codec", s.adapter.Codec().Name())
	return nil
}

// Stats returns the number of writes performed and skipped.
func (s *Saver) Stats() (writes, skipped int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes, s.skipped
}

// Behind reports whether the last write failed and no newer snapshot is
// queued, leaving the store older than the live layout.
func (s *Saver) Behind() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed && s.pending == nil
}

// Close flushes any pending snapshot and stops accepting new ones.
func (s *Saver) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.Flush(ctx)
}
