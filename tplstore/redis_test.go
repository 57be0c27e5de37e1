package tplstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvillar/quotepdf/doctpl"
	"github.com/lvillar/quotepdf/tplstore"
)

// fakeRedis answers commands from a map.
type fakeRedis struct {
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	client := newFakeRedis()
	s := tplstore.NewRedisStore(client, "")
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, &doctpl.Template{ID: "air", Name: "Air"}, time.Hour))
	assert.Contains(t, client.data, tplstore.DefaultRedisPrefix+"air")
	assert.Equal(t, time.Hour, client.ttls[tplstore.DefaultRedisPrefix+"air"])

	tpl, err := s.Get(ctx, "air")
	require.NoError(t, err)
	assert.Equal(t, "Air", tpl.Name)
	assert.Equal(t, "A4", tpl.Config.PageSize)

	require.NoError(t, s.Delete(ctx, "air"))
	_, err = s.Get(ctx, "air")
	assert.ErrorIs(t, err, tplstore.ErrNotFound)
}

func TestRedisStoreErrors(t *testing.T) {
	client := newFakeRedis()
	client.data["p:bad"] = `{"sections": []}`
	s := tplstore.NewRedisStore(client, "p:")
	ctx := context.Background()

	_, err := s.Get(ctx, "bad")
	assert.ErrorIs(t, err, doctpl.ErrValidation)

	client.err = errors.New("connection reset")
	_, err = s.Get(ctx, "bad")
	require.Error(t, err)
	assert.False(t, errors.Is(err, tplstore.ErrNotFound))
	assert.Error(t, s.Put(ctx, &doctpl.Template{ID: "x", Name: "X"}, 0))
}
