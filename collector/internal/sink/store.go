package sink

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/pipelinedash/pipelinedash/pkg/types"
)

// Key identifies one series in a Store.
type Key struct {
	Metric   types.MetricName
	Pipeline string
}

// Entry is the latest point for a Key together with when it was received.
type Entry struct {
	Point     types.MetricPoint
	UpdatedAt time.Time
}

// Store is a thread-safe latest-value store of published points. A
// background goroutine (Run) evicts series that have not been published
// within the TTL. A zero TTL disables expiry.
type Store struct {
	mu   sync.RWMutex
	data map[Key]*Entry
	ttl  time.Duration
	now  func() time.Time // injectable for deterministic tests
}

// NewStore creates a Store with the given TTL.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		data: make(map[Key]*Entry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Publish records each non-zero point, replacing the previous value of its series.
func (s *Store) Publish(_ context.Context, points []types.MetricPoint) error {
	points = nonZero(points)
	if len(points) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for _, p := range points {
		s.data[Key{Metric: p.Name, Pipeline: p.PipelineName}] = &Entry{Point: p, UpdatedAt: now}
	}
	return nil
}

// Get returns the entry for k. The entry may be stale if the TTL has elapsed.
func (s *Store) Get(k Key) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[k]
	return e, ok
}

// Points returns the live points ordered by pipeline, then metric.
func (s *Store) Points() []types.MetricPoint {
	s.mu.RLock()
	now := s.now()
	out := make([]types.MetricPoint, 0, len(s.data))
	for _, e := range s.data {
		if s.live(e, now) {
			out = append(out, e.Point)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].PipelineName != out[j].PipelineName {
			return out[i].PipelineName < out[j].PipelineName
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Count returns the number of series held, including stale ones.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// WriteText writes the live points in Prometheus text format.
func (s *Store) WriteText(w io.Writer) error {
	return WriteText(w, s.Points())
}

// Evict removes entries not updated within the TTL as of now and returns how
// many were removed.
func (s *Store) Evict(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for k, e := range s.data {
		if !s.live(e, now) {
			delete(s.data, k)
			removed++
		}
	}
	return removed
}

// Run evicts stale entries every half TTL (minimum one second) until ctx is
// cancelled. It returns immediately when expiry is disabled.
func (s *Store) Run(ctx context.Context) {
	if s.ttl <= 0 {
		return
	}
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Debug("sink: evicted stale series", "count", n)
			}
		}
	}
}

func (s *Store) live(e *Entry, now time.Time) bool {
	return s.ttl <= 0 || e.UpdatedAt.After(now.Add(-s.ttl))
}
