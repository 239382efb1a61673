package redisstore_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/redisstore"
)

// Requiere un Redis real: TEST_REDIS_ADDR=localhost:6379
func testStore(t *testing.T) *redisstore.Store {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR no definido")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ns := "stock-test-" + t.Name()
	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := client.Keys(ctx, ns+":*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		_ = client.Close()
	})
	return redisstore.NewWithClient(client, ns)
}

func TestStore_Redis(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "stockData")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "stockData", []byte(`[]`)))
	v, ok, err := s.Get(ctx, "stockData")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, string(v))

	boom := errors.New("boom")
	err = s.Atomically(ctx, func(kv repository.KeyValueStore) error {
		_ = kv.Set(ctx, "stockData", []byte(`[1]`))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	v, _, _ = s.Get(ctx, "stockData")
	assert.Equal(t, `[]`, string(v))

	require.NoError(t, s.Atomically(ctx, func(kv repository.KeyValueStore) error {
		if err := kv.Set(ctx, "users", []byte(`{}`)); err != nil {
			return err
		}
		return kv.Delete(ctx, "stockData")
	}))
	_, ok, _ = s.Get(ctx, "stockData")
	assert.False(t, ok)
	v, _, _ = s.Get(ctx, "users")
	assert.Equal(t, `{}`, string(v))
}
