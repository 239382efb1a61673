package stock

import (
	"strings"

	"github.com/shopspring/decimal"
)

// LenientQuantity es la política única de lectura de cantidades ya persistidas:
// un valor ausente o no numérico contribuye cero a los agregados, de modo que un
// registro dañado no invalida el tablero completo. La entrada de datos nueva se
// valida de forma estricta antes de llegar aquí.
func LenientQuantity(raw string) decimal.Decimal {
	raw = strings.Trim(strings.TrimSpace(raw), `"`)
	if raw == "" || raw == "null" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}
