package tplstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lvillar/quotepdf/doctpl"
)

// DefaultRedisPrefix namespaces template keys.
const DefaultRedisPrefix = "quotepdf:template:"

// RedisClient is the subset of redis.Cmdable the store uses.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

var _ RedisClient = (*redis.Client)(nil)

// RedisStore keeps templates as JSON strings under prefix+id.
type RedisStore struct {
	client RedisClient
	prefix string
}

// NewRedisStore creates a store on client. An empty prefix uses
// DefaultRedisPrefix.
func NewRedisStore(client RedisClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, id string) (*doctpl.Template, error) {
	data, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("tplstore: redis get %q: %w", id, err)
	}
	return decode(id, data)
}

// Put validates tpl and stores it. A zero ttl keeps it until deleted.
func (s *RedisStore) Put(ctx context.Context, tpl *doctpl.Template, ttl time.Duration) error {
	if tpl == nil || tpl.ID == "" {
		return errors.New("tplstore: template id is required")
	}
	valid, err := doctpl.Validate(tpl)
	if err != nil {
		return err
	}
	body, err := json.Marshal(valid)
	if err != nil {
		return fmt.Errorf("tplstore: encoding %q: %w", tpl.ID, err)
	}
	if err := s.client.Set(ctx, s.prefix+tpl.ID, body, ttl).Err(); err != nil {
		return fmt.Errorf("tplstore: redis set %q: %w", tpl.ID, err)
	}
	return nil
}

// Delete removes id.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.prefix+id).Err(); err != nil {
		return fmt.Errorf("tplstore: redis del %q: %w", id, err)
	}
	return nil
}
