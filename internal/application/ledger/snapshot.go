package ledger

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/domain/stock"
)

// LevelSnapshot mantiene una copia materializada de los niveles fuera del blob
// (por ejemplo la tabla stock_levels) y la recalcula con cada cambio del libro.
type LevelSnapshot struct {
	uc   *UseCase
	repo repository.StockLevelRepository
}

// NewLevelSnapshot construye el suscriptor.
func NewLevelSnapshot(uc *UseCase, repo repository.StockLevelRepository) *LevelSnapshot {
	return &LevelSnapshot{uc: uc, repo: repo}
}

// Handle recalcula todos los niveles; pensado para suscribirse a StockDataChanged.
func (s *LevelSnapshot) Handle(ctx context.Context, _ entity.StockDataChanged) error {
	txs, err := s.uc.Transactions(ctx)
	if err != nil {
		return err
	}
	levels := stock.AllStockLevels(txs)
	rows := make([]repository.StockLevel, 0, levels.Len())
	for _, k := range levels.Keys() {
		rows = append(rows, repository.StockLevel{
			ItemKey:     k,
			DisplayName: stock.DisplayNameFor(txs, k),
			Quantity:    levels.Get(k),
		})
	}
	return s.repo.Refresh(ctx, rows)
}
