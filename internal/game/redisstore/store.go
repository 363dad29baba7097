package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/kelime-arena/internal/game"
)

const deadlinesKey = "game:deadlines"

// Options tunes the Redis store.
type Options struct {
	// MaxRetries bounds optimistic transaction retries before ErrTransactionConflict.
	MaxRetries int
	// TTL is the retention window; refreshed on every commit.
	TTL time.Duration
	// OnConflict is called for every aborted transaction attempt.
	OnConflict func()
}

// Store keeps one JSON document per session and guards updates with
// WATCH/MULTI/EXEC, so concurrent writers on the same record serialize.
type Store struct {
	redis  *redis.Client
	opts   Options
	logger zerolog.Logger
}

var (
	_ game.Store         = (*Store)(nil)
	_ game.DeadlineIndex = (*Store)(nil)
	_ game.Locker        = (*Store)(nil)
)

// New creates a store backed by Redis.
func New(redis *redis.Client, opts Options, logger zerolog.Logger) *Store {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 5
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	return &Store{
		redis:  redis,
		opts:   opts,
		logger: logger.With().Str("component", "record_store").Logger(),
	}
}

func recordKey(id string) string {
	return fmt.Sprintf("game:record:%s", id)
}

func channelKey(id string) string {
	return fmt.Sprintf("game:%s:events", id)
}

// Create stores rec only if the id is free.
func (s *Store) Create(ctx context.Context, rec *game.Record) error {
	rec.Version = 1
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	created, err := s.redis.SetNX(ctx, recordKey(rec.ID), data, s.opts.TTL).Result()
	if err != nil {
		return fmt.Errorf("create record: %w", err)
	}
	if !created {
		return game.ErrSessionExists
	}
	return nil
}

// Get loads the current record.
func (s *Store) Get(ctx context.Context, id string) (*game.Record, error) {
	data, err := s.redis.Get(ctx, recordKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, game.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return decode(data)
}

// Update runs fn inside an optimistic transaction. If another writer commits between
// the read and EXEC the attempt is discarded and retried with a fresh read.
func (s *Store) Update(ctx context.Context, id string, fn game.UpdateFunc) (*game.Record, error) {
	key := recordKey(id)

	for attempt := 0; attempt < s.opts.MaxRetries; attempt++ {
		var committed *game.Record

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				return game.ErrSessionNotFound
			}
			if err != nil {
				return fmt.Errorf("get record: %w", err)
			}

			rec, err := decode(data)
			if err != nil {
				return err
			}
			version := rec.Version

			if err := fn(rec); err != nil {
				if errors.Is(err, game.ErrNoChange) {
					committed, err = decode(data)
					if err != nil {
						return err
					}
					return nil
				}
				return err
			}
			if err := rec.Validate(); err != nil {
				return fmt.Errorf("%w: %v", game.ErrInvalidRecord, err)
			}

			rec.Version = version + 1
			payload, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("marshal record: %w", err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, payload, s.opts.TTL)
				pipe.Publish(ctx, channelKey(id), payload)
				return nil
			})
			if err != nil {
				return err
			}
			committed = rec
			return nil
		}, key)

		if err == nil {
			return committed, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return nil, err
		}

		if s.opts.OnConflict != nil {
			s.opts.OnConflict()
		}
		s.logger.Debug().Str("game_id", id).Int("attempt", attempt+1).Msg("transaction conflict, retrying")
		if err := backoff(ctx, attempt); err != nil {
			return nil, err
		}
	}

	return nil, game.ErrTransactionConflict
}

// Subscribe streams every committed record for id. The current record is sent first;
// delivery afterwards is at-least-once and may repeat a snapshot.
func (s *Store) Subscribe(ctx context.Context, id string) (<-chan *game.Record, error) {
	sub := s.redis.Subscribe(ctx, channelKey(id))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		_ = sub.Close()
		return nil, err
	}

	out := make(chan *game.Record, 16)
	out <- current

	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				rec, err := decode([]byte(msg.Payload))
				if err != nil {
					s.logger.Warn().Err(err).Str("game_id", id).Msg("skip undecodable record event")
					continue
				}
				select {
				case out <- rec:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// SetDeadline indexes the turn deadline of id (score = unix millis).
func (s *Store) SetDeadline(ctx context.Context, id string, deadline time.Time) error {
	return s.redis.ZAdd(ctx, deadlinesKey, redis.Z{
		Score:  float64(deadline.UnixMilli()),
		Member: id,
	}).Err()
}

// ClearDeadline removes id from the deadline index.
func (s *Store) ClearDeadline(ctx context.Context, id string) error {
	return s.redis.ZRem(ctx, deadlinesKey, id).Err()
}

// Overdue lists sessions whose deadline is at or before cutoff, oldest first.
func (s *Store) Overdue(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	ids, err := s.redis.ZRangeByScore(ctx, deadlinesKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   fmt.Sprintf("%d", cutoff.UnixMilli()),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list overdue: %w", err)
	}
	return ids, nil
}

// TryLock acquires a short-lived named lock. ok is false if another holder has it.
func (s *Store) TryLock(ctx context.Context, name string, ttl time.Duration) (unlock func() error, ok bool, err error) {
	key := fmt.Sprintf("game:lock:%s", name)
	lockValue := uuid.New().String()

	acquired, err := s.redis.SetNX(ctx, key, lockValue, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}

	unlock = func() error {
		// Only delete the lock if we still own it.
		script := `
			if redis.call("get", KEYS[1]) == ARGV[1] then
				return redis.call("del", KEYS[1])
			else
				return 0
			end
		`
		return s.redis.Eval(context.Background(), script, []string{key}, lockValue).Err()
	}
	return unlock, true, nil
}

func decode(data []byte) (*game.Record, error) {
	var rec game.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return &rec, nil
}

func backoff(ctx context.Context, attempt int) error {
	wait := time.Duration(attempt+1)*5*time.Millisecond + time.Duration(rand.Intn(5))*time.Millisecond
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
