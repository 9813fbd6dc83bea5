package sheets

import (
	"context"
	"sync"
	"time"
)

// CachedSource wraps a Source with a per-worksheet TTL cache so repeated
// dashboard loads within the TTL window do not hammer the external source.
// Errors are not cached; the next call retries.
type CachedSource struct {
	next Source
	ttl  time.Duration

	mu      sync.Mutex
	entries map[string]cacheEntry

	// now is swapped out in tests
	now func() time.Time

	// OnResult, when set, observes every lookup as "hit" or "miss".
	OnResult func(result string)
}

type cacheEntry struct {
	readings []Reading
	storedAt time.Time
}

// NewCachedSource wraps next with a TTL cache.
func NewCachedSource(next Source, ttl time.Duration) *CachedSource {
	return &CachedSource{
		next:    next,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (s *CachedSource) Records(ctx context.Context, worksheet string) ([]Reading, error) {
	s.mu.Lock()
	entry, ok := s.entries[worksheet]
	if ok && s.now().Sub(entry.storedAt) < s.ttl {
		s.mu.Unlock()
		s.observe("hit")
		return entry.readings, nil
	}
	if ok {
		delete(s.entries, worksheet)
	}
	s.mu.Unlock()
	s.observe("miss")

	readings, err := s.next.Records(ctx, worksheet)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.entries[worksheet] = cacheEntry{readings: readings, storedAt: s.now()}
	s.mu.Unlock()
	return readings, nil
}

// Clear drops every cached worksheet.
func (s *CachedSource) Clear() {
	s.mu.Lock()
	s.entries = make(map[string]cacheEntry)
	s.mu.Unlock()
}

func (s *CachedSource) observe(result string) {
	if s.OnResult != nil {
		s.OnResult(result)
	}
}
