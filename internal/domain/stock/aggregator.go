// Package stock contiene la agregación del libro de movimientos: niveles de stock,
// totales, artículo más frecuente y movimientos recientes. Todas las funciones son
// puras: no modifican la secuencia recibida.
package stock

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// EmptySentinel valor de MostFrequentItem cuando el libro está vacío.
const EmptySentinel = "-"

// LowStockThreshold por debajo de este nivel una salida genera una advertencia.
var LowStockThreshold = decimal.NewFromInt(5)

// Levels niveles de stock por ItemKey, en orden de primera aparición.
type Levels struct {
	keys   []string
	levels map[string]decimal.Decimal
}

// Keys claves en orden de primera aparición en el libro.
func (l Levels) Keys() []string { return append([]string(nil), l.keys...) }

// Get nivel de una clave; cero si no existe.
func (l Levels) Get(itemKey string) decimal.Decimal {
	return l.levels[NormalizeKey(itemKey)]
}

// Has indica si la clave aparece en el libro.
func (l Levels) Has(itemKey string) bool {
	_, ok := l.levels[NormalizeKey(itemKey)]
	return ok
}

// Len número de claves distintas.
func (l Levels) Len() int { return len(l.keys) }

// Map copia de los niveles.
func (l Levels) Map() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(l.levels))
	for k, v := range l.levels {
		out[k] = v
	}
	return out
}

// Totals cantidades totales de entradas y salidas, sin distinguir artículo.
type Totals struct {
	In  decimal.Decimal
	Out decimal.Decimal
}

// signed contribución de un movimiento al nivel de su artículo.
func signed(t entity.Transaction) decimal.Decimal {
	switch t.Kind {
	case entity.KindIn:
		return t.Quantity
	case entity.KindOut:
		return t.Quantity.Neg()
	default:
		return decimal.Zero
	}
}

// CurrentStock suma de IN menos suma de OUT para itemKey (sin distinguir mayúsculas).
// Devuelve cero para artículos desconocidos.
func CurrentStock(txs []entity.Transaction, itemKey string) decimal.Decimal {
	key := NormalizeKey(itemKey)
	total := decimal.Zero
	for _, t := range txs {
		if NormalizeKey(t.ItemKey) == key {
			total = total.Add(signed(t))
		}
	}
	return total
}

// AllStockLevels calcula en una pasada el nivel de cada clave presente, incluidas las
// que quedan en cero o negativas (un nivel negativo delata un sobregiro y no se recorta).
func AllStockLevels(txs []entity.Transaction) Levels {
	l := Levels{levels: make(map[string]decimal.Decimal)}
	for _, t := range txs {
		key := NormalizeKey(t.ItemKey)
		cur, ok := l.levels[key]
		if !ok {
			l.keys = append(l.keys, key)
		}
		l.levels[key] = cur.Add(signed(t))
	}
	return l
}

// ComputeTotals suma de cantidades IN y OUT.
func ComputeTotals(txs []entity.Transaction) Totals {
	tot := Totals{In: decimal.Zero, Out: decimal.Zero}
	for _, t := range txs {
		switch t.Kind {
		case entity.KindIn:
			tot.In = tot.In.Add(t.Quantity)
		case entity.KindOut:
			tot.Out = tot.Out.Add(t.Quantity)
		}
	}
	return tot
}

// MostFrequentItem nombre a mostrar de la clave con más movimientos (ambos tipos).
// Empates: gana la primera clave encontrada. Libro vacío: EmptySentinel.
func MostFrequentItem(txs []entity.Transaction) string {
	if len(txs) == 0 {
		return EmptySentinel
	}
	counts := make(map[string]int)
	var order []string
	for _, t := range txs {
		key := NormalizeKey(t.ItemKey)
		if _, ok := counts[key]; !ok {
			order = append(order, key)
		}
		counts[key]++
	}
	best, top := "", 0
	for _, key := range order {
		if counts[key] > top {
			best, top = key, counts[key]
		}
	}
	return DisplayNameFor(txs, best)
}

// RecentTransactions movimientos de kind ordenados por instante descendente y truncados
// a limit. Instantes iguales conservan el orden de inserción. limit <= 0 no trunca.
func RecentTransactions(txs []entity.Transaction, kind entity.Kind, limit int) []entity.Transaction {
	out := make([]entity.Transaction, 0)
	for _, t := range txs {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// DisplayNameFor DisplayName del primer movimiento con itemKey; itemKey si no hay ninguno.
func DisplayNameFor(txs []entity.Transaction, itemKey string) string {
	key := NormalizeKey(itemKey)
	for _, t := range txs {
		if NormalizeKey(t.ItemKey) == key {
			return t.Label()
		}
	}
	return itemKey
}

// IsLow indica si un nivel queda por debajo del umbral de stock bajo.
func IsLow(level decimal.Decimal) bool {
	return level.LessThan(LowStockThreshold)
}

// Without copia de txs sin el movimiento con id (para recalcular al editar).
func Without(txs []entity.Transaction, id string) []entity.Transaction {
	out := make([]entity.Transaction, 0, len(txs))
	for _, t := range txs {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}
