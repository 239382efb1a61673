package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// LedgerRepository puerto del libro de movimientos (blob stockData).
// Cada escritura reescribe el blob completo y actualiza stockDataUpdated.
type LedgerRepository interface {
	List(ctx context.Context) ([]entity.Transaction, error)
	// Get devuelve ErrNotFound si no hay movimiento con ese id.
	Get(ctx context.Context, id string) (*entity.Transaction, error)
	Append(ctx context.Context, tx entity.Transaction) error
	// Replace sustituye en su posición el movimiento con el mismo ID.
	Replace(ctx context.Context, tx entity.Transaction) error
	// Delete elimina y devuelve el movimiento borrado.
	Delete(ctx context.Context, id string) (*entity.Transaction, error)
	// Version marca de tiempo (unix ms) de la última reescritura; 0 si nunca se escribió.
	Version(ctx context.Context) (int64, error)
}

// StockLevel nivel materializado de un artículo.
type StockLevel struct {
	ItemKey     string
	DisplayName string
	Quantity    decimal.Decimal
}

// StockLevelRepository instantánea de niveles fuera del blob (tabla stock_levels).
type StockLevelRepository interface {
	Refresh(ctx context.Context, levels []StockLevel) error
	List(ctx context.Context) ([]StockLevel, error)
}
