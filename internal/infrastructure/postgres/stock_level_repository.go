package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.StockLevelRepository = (*StockLevelRepo)(nil)

// StockLevelRepo instantánea de niveles en stock_levels, para consultas SQL externas.
type StockLevelRepo struct {
	pool      *pgxpool.Pool
	namespace string
}

// NewStockLevelRepository construye el adaptador de la instantánea.
func NewStockLevelRepository(pool *pgxpool.Pool, namespace string) *StockLevelRepo {
	return &StockLevelRepo{pool: pool, namespace: namespace}
}

// Refresh reemplaza la instantánea del namespace en una sola transacción.
func (r *StockLevelRepo) Refresh(ctx context.Context, levels []repository.StockLevel) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM stock_levels WHERE namespace = $1`, r.namespace); err != nil {
		return fmt.Errorf("limpiar stock_levels: %w", err)
	}

	batch := &pgx.Batch{}
	for i, l := range levels {
		batch.Queue(`
			INSERT INTO stock_levels (namespace, item_key, display_name, quantity, position, updated_at)
			VALUES ($1, $2, $3, $4, $5, now())`,
			r.namespace, l.ItemKey, l.DisplayName, l.Quantity, i,
		)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insertar stock_levels: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// List niveles en el orden de primera aparición del libro.
func (r *StockLevelRepo) List(ctx context.Context) ([]repository.StockLevel, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT item_key, display_name, quantity
		FROM stock_levels WHERE namespace = $1
		ORDER BY position`, r.namespace)
	if err != nil {
		return nil, fmt.Errorf("list stock_levels: %w", err)
	}
	defer rows.Close()

	var out []repository.StockLevel
	for rows.Next() {
		var l repository.StockLevel
		if err := rows.Scan(&l.ItemKey, &l.DisplayName, &l.Quantity); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
