package words

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultMeaningTTL = 7 * 24 * time.Hour

// Cache keeps looked-up meanings in Redis so repeated round endings do not hit the API.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ MeaningCache = (*Cache)(nil)

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultMeaningTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) key(word string) string {
	return "meaning:" + word
}

func (c *Cache) Get(ctx context.Context, word string) (string, bool, error) {
	meaning, err := c.client.Get(ctx, c.key(word)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return meaning, true, nil
}

func (c *Cache) Set(ctx context.Context, word, meaning string) error {
	return c.client.Set(ctx, c.key(word), meaning, c.ttl).Err()
}
