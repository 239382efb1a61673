package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@db:5432/x?sslmode=disable", migrateURL("postgres://u:p@db:5432/x?sslmode=disable"))
	assert.Equal(t, "pgx5://db/x", migrateURL("postgresql://db/x"))
	assert.Equal(t, "pgx5://db/x", migrateURL("pgx5://db/x"))
}

// Los tests siguientes requieren una base real: TEST_DATABASE_URL=postgres://...
func testPool(t *testing.T) config.DBConfig {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL no definido")
	}
	return config.DBConfig{DatabaseURL: url}
}

func TestKVStore_Postgres(t *testing.T) {
	cfg := testPool(t)
	ctx := context.Background()
	require.NoError(t, Migrate(cfg.ConnectionString(), logger.Nop()))

	pool, err := NewPool(ctx, cfg)
	require.NoError(t, err)
	defer pool.Close()

	s := NewKVStore(pool, "test-"+t.Name())
	defer func() { _, _ = pool.Exec(ctx, `DELETE FROM kv_store WHERE namespace = $1`, s.namespace) }()

	require.NoError(t, s.Set(ctx, "stockData", []byte(`[]`)))
	v, ok, err := s.Get(ctx, "stockData")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, string(v))

	err = s.Atomically(ctx, func(kv repository.KeyValueStore) error {
		return kv.Set(ctx, "stockData", []byte(`[{"id":"1"}]`))
	})
	require.NoError(t, err)
	v, _, _ = s.Get(ctx, "stockData")
	assert.Equal(t, `[{"id":"1"}]`, string(v))

	require.NoError(t, s.Delete(ctx, "stockData"))
	_, ok, _ = s.Get(ctx, "stockData")
	assert.False(t, ok)
}

func TestStockLevelRepo_Postgres(t *testing.T) {
	cfg := testPool(t)
	ctx := context.Background()
	require.NoError(t, Migrate(cfg.ConnectionString(), logger.Nop()))

	pool, err := NewPool(ctx, cfg)
	require.NoError(t, err)
	defer pool.Close()

	repo := NewStockLevelRepository(pool, "test-"+t.Name())
	levels := []repository.StockLevel{
		{ItemKey: "nut", DisplayName: "Nut", Quantity: decimal.RequireFromString("2.5")},
		{ItemKey: "bolt", DisplayName: "Bolt", Quantity: decimal.NewFromInt(7)},
	}
	require.NoError(t, repo.Refresh(ctx, levels))
	defer func() { _ = repo.Refresh(ctx, nil) }()

	got, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "nut", got[0].ItemKey)
	assert.True(t, decimal.NewFromInt(7).Equal(got[1].Quantity))
}
