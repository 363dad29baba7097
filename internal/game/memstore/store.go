// Package memstore keeps records in process memory. It backs single-node
// deployments (STORE_DRIVER=memory) and tests; state is lost on restart.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gokatarajesh/kelime-arena/internal/game"
)

const subscriberBuffer = 16

// Store serializes every update behind one mutex, which trivially gives
// per-record serializable isolation.
type Store struct {
	mu        sync.Mutex
	records   map[string]*game.Record
	subs      map[string]map[int]chan *game.Record
	nextSub   int
	deadlines map[string]time.Time
	locks     map[string]time.Time
	expires   map[string]time.Time

	ttl time.Duration
	now func() time.Time
}

// Options tunes record retention.
type Options struct {
	// TTL evicts a record this long after its last commit. Zero keeps
	// records until restart.
	TTL time.Duration
	// Clock defaults to time.Now.
	Clock func() time.Time
}

var (
	_ game.Store         = (*Store)(nil)
	_ game.DeadlineIndex = (*Store)(nil)
	_ game.Locker        = (*Store)(nil)
)

// New creates an empty store.
func New(opts Options) *Store {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Store{
		records:   make(map[string]*game.Record),
		subs:      make(map[string]map[int]chan *game.Record),
		deadlines: make(map[string]time.Time),
		locks:     make(map[string]time.Time),
		expires:   make(map[string]time.Time),
		ttl:       opts.TTL,
		now:       opts.Clock,
	}
}

func (s *Store) Create(ctx context.Context, rec *game.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.liveLocked(rec.ID); exists {
		return game.ErrSessionExists
	}
	stored := rec.Clone()
	stored.Version = 1
	s.storeLocked(stored)
	rec.Version = stored.Version
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*game.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.liveLocked(id)
	if !ok {
		return nil, game.ErrSessionNotFound
	}
	return rec.Clone(), nil
}

// liveLocked returns the record unless it is absent or past its TTL. An
// expired record is evicted on the spot.
func (s *Store) liveLocked(id string) (*game.Record, bool) {
	rec, ok := s.records[id]
	if !ok {
		return nil, false
	}
	if expires, tracked := s.expires[id]; tracked && !s.now().Before(expires) {
		s.evictLocked(id)
		return nil, false
	}
	return rec, true
}

func (s *Store) storeLocked(rec *game.Record) {
	s.records[rec.ID] = rec
	if s.ttl > 0 {
		s.expires[rec.ID] = s.now().Add(s.ttl)
	}
}

// evictLocked drops the record and its deadline. Open subscriptions stay
// registered until their contexts end.
func (s *Store) evictLocked(id string) {
	delete(s.records, id)
	delete(s.expires, id)
	delete(s.deadlines, id)
}

// sweepLocked evicts every expired record.
func (s *Store) sweepLocked() {
	now := s.now()
	for id, expires := range s.expires {
		if !now.Before(expires) {
			s.evictLocked(id)
		}
	}
}

func (s *Store) Update(ctx context.Context, id string, fn game.UpdateFunc) (*game.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.liveLocked(id)
	if !ok {
		return nil, game.ErrSessionNotFound
	}

	working := current.Clone()
	if err := fn(working); err != nil {
		if errors.Is(err, game.ErrNoChange) {
			return current.Clone(), nil
		}
		return nil, err
	}
	if err := working.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", game.ErrInvalidRecord, err)
	}

	working.Version = current.Version + 1
	s.storeLocked(working)
	s.publishLocked(working)
	return working.Clone(), nil
}

func (s *Store) Subscribe(ctx context.Context, id string) (<-chan *game.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.liveLocked(id)
	if !ok {
		return nil, game.ErrSessionNotFound
	}

	ch := make(chan *game.Record, subscriberBuffer)
	subID := s.nextSub
	s.nextSub++
	if s.subs[id] == nil {
		s.subs[id] = make(map[int]chan *game.Record)
	}
	s.subs[id][subID] = ch
	ch <- rec.Clone()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs[id], subID)
		if len(s.subs[id]) == 0 {
			delete(s.subs, id)
		}
		close(ch)
	}()

	return ch, nil
}

// publishLocked delivers rec to every subscriber. A slow subscriber loses its
// oldest queued snapshot rather than blocking the writer.
func (s *Store) publishLocked(rec *game.Record) {
	for _, ch := range s.subs[rec.ID] {
		snapshot := rec.Clone()
		select {
		case ch <- snapshot:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snapshot:
		default:
		}
	}
}

func (s *Store) SetDeadline(ctx context.Context, id string, deadline time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deadlines[id] = deadline
	return nil
}

func (s *Store) ClearDeadline(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.deadlines, id)
	return nil
}

func (s *Store) Overdue(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Overdue runs on every watchdog tick, which makes it the sweep point.
	s.sweepLocked()

	ids := make([]string, 0)
	for id, deadline := range s.deadlines {
		if !deadline.After(cutoff) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		return s.deadlines[ids[i]].Before(s.deadlines[ids[j]])
	})
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (s *Store) TryLock(ctx context.Context, name string, ttl time.Duration) (func() error, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if expires, held := s.locks[name]; held && now.Before(expires) {
		return nil, false, nil
	}
	expires := now.Add(ttl)
	s.locks[name] = expires

	unlock := func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.locks[name].Equal(expires) {
			delete(s.locks, name)
		}
		return nil
	}
	return unlock, true, nil
}
