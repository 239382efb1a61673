// Package backend abre el almacén clave-valor configurado en STORE_BACKEND.
package backend

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/kv"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/redisstore"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// Backend almacén abierto y recursos asociados.
type Backend struct {
	Store repository.AtomicStore
	// Pool solo con backend postgres (para la instantánea de niveles).
	Pool    *pgxpool.Pool
	closers []func()
}

// Close libera conexiones.
func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// Open abre el backend según cfg.Store.Backend. Con postgres aplica migraciones si DB_MIGRATE.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Backend, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return &Backend{Store: kv.NewMemory()}, nil

	case config.BackendFile:
		f, err := kv.OpenFile(cfg.Store.FilePath, log.Named("kv"))
		if err != nil {
			return nil, err
		}
		return &Backend{Store: f}, nil

	case config.BackendPostgres:
		if cfg.DB.Migrate {
			if err := postgres.Migrate(cfg.DB.ConnectionString(), log.Named("migrate")); err != nil {
				return nil, err
			}
		}
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Store:   postgres.NewKVStore(pool, cfg.Store.Namespace),
			Pool:    pool,
			closers: []func(){pool.Close},
		}, nil

	case config.BackendRedis:
		s, err := redisstore.New(ctx, cfg.Redis, cfg.Store.Namespace)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: s, closers: []func(){func() { _ = s.Close() }}}, nil

	default:
		return nil, fmt.Errorf("backend desconocido %q", cfg.Store.Backend)
	}
}
