package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var (
	_ repository.AtomicStore   = (*KVStore)(nil)
	_ repository.KeyValueStore = (*kvView)(nil)
)

// KVStore almacén de blobs en la tabla kv_store, aislado por namespace.
type KVStore struct {
	kvView
	pool *pgxpool.Pool
}

// NewKVStore construye el almacén sobre el pool.
func NewKVStore(pool *pgxpool.Pool, namespace string) *KVStore {
	return &KVStore{kvView: kvView{q: pool, namespace: namespace}, pool: pool}
}

// Atomically inicia una transacción, toma un advisory lock por namespace para serializar
// el read-modify-write y hace Commit si fn no falla.
func (s *KVStore) Atomically(ctx context.Context, fn func(kv repository.KeyValueStore) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, s.namespace); err != nil {
		return fmt.Errorf("advisory lock: %w", err)
	}
	if err := fn(&kvView{q: tx, namespace: s.namespace}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// kvView operaciones sobre kv_store con pool o tx (Querier).
type kvView struct {
	q         Querier
	namespace string
}

func (v *kvView) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := v.q.QueryRow(ctx,
		`SELECT value FROM kv_store WHERE namespace = $1 AND key = $2`,
		v.namespace, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (v *kvView) Set(ctx context.Context, key string, value []byte) error {
	_, err := v.q.Exec(ctx, `
		INSERT INTO kv_store (namespace, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (namespace, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		v.namespace, key, value,
	)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (v *kvView) Delete(ctx context.Context, key string) error {
	if _, err := v.q.Exec(ctx, `DELETE FROM kv_store WHERE namespace = $1 AND key = $2`, v.namespace, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
