package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/kelime-arena/internal/game"
)

func newRecord(t *testing.T, id string) *game.Record {
	t.Helper()
	rec, err := game.NewMachine(nil).NewRecord(id, game.CreateParams{
		CreatorID:   "alice",
		Username:    "Alice",
		Mode:        game.ModeSolo,
		WordLength:  5,
		TimeLimit:   time.Minute,
		MatchLength: 1,
	}, "KALEM", time.Now())
	require.NoError(t, err)
	return rec
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := New(Options{})
	rec := newRecord(t, "ABC123")

	require.NoError(t, s.Create(ctx, rec))
	assert.ErrorIs(t, s.Create(ctx, rec), game.ErrSessionExists)

	got, err := s.Get(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
	assert.Equal(t, "KALEM", got.SecretWord)

	_, err = s.Get(ctx, "NOPE00")
	assert.ErrorIs(t, err, game.ErrSessionNotFound)
}

func TestUpdateSemantics(t *testing.T) {
	ctx := context.Background()
	s := New(Options{})
	require.NoError(t, s.Create(ctx, newRecord(t, "ABC123")))

	updated, err := s.Update(ctx, "ABC123", func(rec *game.Record) error {
		rec.Players["alice"].Score = 800
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, 800, updated.Players["alice"].Score)

	unchanged, err := s.Update(ctx, "ABC123", func(rec *game.Record) error {
		return game.ErrNoChange
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), unchanged.Version)

	boom := errors.New("boom")
	_, err = s.Update(ctx, "ABC123", func(rec *game.Record) error {
		rec.Players["alice"].Score = 0
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Get(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, 800, got.Players["alice"].Score, "failed update must leave the record untouched")

	_, err = s.Update(ctx, "MISSING", func(rec *game.Record) error { return nil })
	assert.ErrorIs(t, err, game.ErrSessionNotFound)
}

func TestConcurrentUpdatesSerialize(t *testing.T) {
	ctx := context.Background()
	s := New(Options{})
	require.NoError(t, s.Create(ctx, newRecord(t, "ABC123")))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Update(ctx, "ABC123", func(rec *game.Record) error {
				rec.Players["alice"].Score++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, 50, got.Players["alice"].Score)
	assert.Equal(t, int64(51), got.Version)
}

func TestSubscribeReceivesCurrentThenCommits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(Options{})
	require.NoError(t, s.Create(ctx, newRecord(t, "ABC123")))

	ch, err := s.Subscribe(ctx, "ABC123")
	require.NoError(t, err)

	first := <-ch
	assert.Equal(t, int64(1), first.Version)

	_, err = s.Update(ctx, "ABC123", func(rec *game.Record) error {
		rec.Players["alice"].Score = 100
		return nil
	})
	require.NoError(t, err)

	select {
	case next := <-ch:
		assert.Equal(t, int64(2), next.Version)
		assert.Equal(t, 100, next.Players["alice"].Score)
	case <-time.After(time.Second):
		t.Fatal("no snapshot after commit")
	}

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)

	_, err = s.Subscribe(context.Background(), "MISSING")
	assert.ErrorIs(t, err, game.ErrSessionNotFound)
}

func TestSlowSubscriberKeepsNewest(t *testing.T) {
	ctx := context.Background()
	s := New(Options{})
	require.NoError(t, s.Create(ctx, newRecord(t, "ABC123")))

	ch, err := s.Subscribe(ctx, "ABC123")
	require.NoError(t, err)

	for i := 0; i < subscriberBuffer*2; i++ {
		_, err := s.Update(ctx, "ABC123", func(rec *game.Record) error {
			rec.Players["alice"].Score++
			return nil
		})
		require.NoError(t, err)
	}

	var last *game.Record
	for len(ch) > 0 {
		last = <-ch
	}
	require.NotNil(t, last)
	assert.Equal(t, int64(subscriberBuffer*2+1), last.Version)
}

func TestDeadlines(t *testing.T) {
	ctx := context.Background()
	s := New(Options{})
	now := time.Now()

	require.NoError(t, s.SetDeadline(ctx, "late", now.Add(-time.Minute)))
	require.NoError(t, s.SetDeadline(ctx, "later", now.Add(-2*time.Minute)))
	require.NoError(t, s.SetDeadline(ctx, "future", now.Add(time.Minute)))

	ids, err := s.Overdue(ctx, now, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"later", "late"}, ids)

	require.NoError(t, s.ClearDeadline(ctx, "later"))
	ids, err = s.Overdue(ctx, now, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"late"}, ids)
}

func TestTryLock(t *testing.T) {
	ctx := context.Background()
	s := New(Options{})

	unlock, ok, err := s.TryLock(ctx, "watchdog", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = s.TryLock(ctx, "watchdog", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, unlock())
	_, ok, err = s.TryLock(ctx, "watchdog", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestRecordsExpireAfterTTL(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := New(Options{TTL: time.Hour, Clock: clock.Now})
	require.NoError(t, s.Create(ctx, newRecord(t, "ABC123")))

	clock.Advance(50 * time.Minute)
	_, err := s.Update(ctx, "ABC123", func(rec *game.Record) error {
		rec.Players["alice"].Score = 10
		return nil
	})
	require.NoError(t, err, "commit refreshes the TTL")

	clock.Advance(50 * time.Minute)
	got, err := s.Get(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, 10, got.Players["alice"].Score)

	clock.Advance(11 * time.Minute)
	_, err = s.Get(ctx, "ABC123")
	assert.ErrorIs(t, err, game.ErrSessionNotFound)
	_, err = s.Update(ctx, "ABC123", func(rec *game.Record) error { return nil })
	assert.ErrorIs(t, err, game.ErrSessionNotFound)
	_, err = s.Subscribe(ctx, "ABC123")
	assert.ErrorIs(t, err, game.ErrSessionNotFound)

	require.NoError(t, s.Create(ctx, newRecord(t, "ABC123")), "expired code can be reused")
}

func TestOverdueSweepsExpiredRecords(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := New(Options{TTL: time.Minute, Clock: clock.Now})
	require.NoError(t, s.Create(ctx, newRecord(t, "ABC123")))
	require.NoError(t, s.SetDeadline(ctx, "ABC123", clock.Now().Add(2*time.Minute)))

	clock.Advance(5 * time.Minute)
	ids, err := s.Overdue(ctx, clock.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, ids)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Empty(t, s.records)
	assert.Empty(t, s.expires)
	assert.Empty(t, s.deadlines)
}

func TestZeroTTLKeepsRecords(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Now()}
	s := New(Options{Clock: clock.Now})
	require.NoError(t, s.Create(ctx, newRecord(t, "ABC123")))

	clock.Advance(30 * 24 * time.Hour)
	_, err := s.Get(ctx, "ABC123")
	assert.NoError(t, err)
}

func TestUpdateRejectsInvalidRecord(t *testing.T) {
	ctx := context.Background()
	s := New(Options{})
	require.NoError(t, s.Create(ctx, newRecord(t, "ABC123")))

	ch, err := s.Subscribe(ctx, "ABC123")
	require.NoError(t, err)
	<-ch

	_, err = s.Update(ctx, "ABC123", func(rec *game.Record) error {
		rec.Status = game.StatusFinished
		return nil
	})
	assert.ErrorIs(t, err, game.ErrInvalidRecord)

	got, err := s.Get(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
	assert.NotEqual(t, game.StatusFinished, got.Status)
	assert.Empty(t, ch, "rejected commit must not publish")
}
