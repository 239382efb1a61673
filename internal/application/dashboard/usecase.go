// Package dashboard contiene el caso de uso del tablero: totales, artículo más
// frecuente, niveles, movimientos recientes y porciones del gráfico.
package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/stock"
)

const recentLimit = 5 // movimientos por tipo en las tablas recientes

// Source de dónde lee el tablero el libro.
type Source interface {
	Transactions(ctx context.Context) ([]entity.Transaction, error)
}

// UseCase genera el resumen del tablero. Solo lectura: no pasa por el control de acceso.
type UseCase struct {
	src Source
}

// NewUseCase construye el caso de uso.
func NewUseCase(src Source) *UseCase {
	return &UseCase{src: src}
}

// Filter restringe las filas de niveles y el gráfico a Items (claves o nombres,
// sin distinguir mayúsculas). Vacío muestra todos. Totales, más frecuente y
// recientes siempre cubren el libro completo.
type Filter struct {
	Items []string
}

func (f Filter) allows(key string) bool {
	if len(f.Items) == 0 {
		return true
	}
	for _, it := range f.Items {
		if stock.NormalizeKey(it) == key {
			return true
		}
	}
	return false
}

// Summary construye el DashboardResponse.
func (uc *UseCase) Summary(ctx context.Context, f Filter) (*dto.DashboardResponse, error) {
	txs, err := uc.src.Transactions(ctx)
	if err != nil {
		return nil, err
	}

	totals := stock.ComputeTotals(txs)
	levels := stock.AllStockLevels(txs)

	out := &dto.DashboardResponse{
		TotalIn:          totals.In,
		TotalOut:         totals.Out,
		MostFrequentItem: stock.MostFrequentItem(txs),
		Levels:           make([]dto.StockLevelDTO, 0, levels.Len()),
		RecentIn:         responses(stock.RecentTransactions(txs, entity.KindIn, recentLimit)),
		RecentOut:        responses(stock.RecentTransactions(txs, entity.KindOut, recentLimit)),
	}

	for _, k := range levels.Keys() {
		if !f.allows(k) {
			continue
		}
		q := levels.Get(k)
		out.Levels = append(out.Levels, dto.StockLevelDTO{
			ItemKey:     k,
			DisplayName: stock.DisplayNameFor(txs, k),
			Quantity:    q,
			LowStock:    stock.IsLow(q),
		})
	}
	out.Chart = Chart(out.Levels)
	return out, nil
}

// FilterOptions artículos del libro (orden de primera aparición) para el diálogo de filtro.
func (uc *UseCase) FilterOptions(ctx context.Context) ([]dto.FilterOptionDTO, error) {
	txs, err := uc.src.Transactions(ctx)
	if err != nil {
		return nil, err
	}
	keys := stock.AllStockLevels(txs).Keys()
	out := make([]dto.FilterOptionDTO, 0, len(keys))
	for _, k := range keys {
		out = append(out, dto.FilterOptionDTO{ItemKey: k, DisplayName: stock.DisplayNameFor(txs, k)})
	}
	return out, nil
}

// Chart porciones del gráfico de niveles. Solo entran niveles positivos; el
// porcentaje se redondea al entero y los colores reparten el círculo de tonos.
func Chart(rows []dto.StockLevelDTO) []dto.ChartSliceDTO {
	positive := make([]dto.StockLevelDTO, 0, len(rows))
	total := decimal.Zero
	for _, r := range rows {
		if r.Quantity.IsPositive() {
			positive = append(positive, r)
			total = total.Add(r.Quantity)
		}
	}
	out := make([]dto.ChartSliceDTO, 0, len(positive))
	if len(positive) == 0 {
		return out
	}
	step := 360.0 / float64(len(positive))
	hundred := decimal.NewFromInt(100)
	for i, r := range positive {
		out = append(out, dto.ChartSliceDTO{
			Label:      r.DisplayName,
			Value:      r.Quantity,
			Percentage: r.Quantity.Mul(hundred).Div(total).Round(0),
			Color:      fmt.Sprintf("hsl(%d, 70%%, 60%%)", int(float64(i)*step)),
		})
	}
	return out
}

// ParseItems separa una lista de artículos "a,b,c" del query string.
func ParseItems(raw string) []string {
	var items []string
	for _, it := range strings.Split(raw, ",") {
		if it = strings.TrimSpace(it); it != "" {
			items = append(items, it)
		}
	}
	return items
}

func responses(txs []entity.Transaction) []dto.TransactionResponse {
	out := make([]dto.TransactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, ledger.TransactionResponse(t))
	}
	return out
}
