package catalog

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Store fetches the catalog once and shares it between screens until it
// expires or is invalidated. Concurrent callers share one in-flight fetch.
type Store struct {
	source Source
	ttl    time.Duration
	now    func() time.Time

	mu         sync.RWMutex
	current    *Catalog
	generation uint64

	group singleflight.Group
}

// NewStore wraps source. A ttl <= 0 keeps the catalog until Invalidate.
func NewStore(source Source, ttl time.Duration) *Store {
	return &Store{
		source: source,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Get returns the shared catalog, fetching it when missing or stale. A caller
// that gives up (ctx done) gets ctx.Err() but the fetch continues for others.
func (s *Store) Get(ctx context.Context) (*Catalog, error) {
	s.mu.RLock()
	cur, gen := s.current, s.generation
	s.mu.RUnlock()
	if cur != nil && s.fresh(cur) {
		return cur, nil
	}

	ch := s.group.DoChan(strconv.FormatUint(gen, 10), func() (any, error) {
		cat, err := s.source.Fetch(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.generation != gen {
			// invalidated while in flight; hand it to the waiting callers only
			slog.InfoContext(ctx, "discarding catalog fetched before invalidation", "generation", gen)
			return cat, nil
		}
		s.current = cat
		return cat, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Catalog), nil
	}
}

// Invalidate drops the cached catalog; the next Get fetches again.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.generation++
}

// Cached returns the current catalog without fetching.
func (s *Store) Cached() (*Catalog, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil || !s.fresh(s.current) {
		return nil, false
	}
	return s.current, true
}

func (s *Store) Ready(ctx context.Context) error {
	_, err := s.Get(ctx)
	return err
}

func (s *Store) fresh(cat *Catalog) bool {
	if s.ttl <= 0 {
		return true
	}
	return s.now().Sub(cat.FetchedAt) < s.ttl
}
