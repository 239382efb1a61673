package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind tipo de movimiento del libro de stock.
type Kind string

// Tipos de movimiento.
const (
	KindIn  Kind = "IN"  // entrada
	KindOut Kind = "OUT" // salida
)

// Valid indica si el tipo es IN u OUT.
func (k Kind) Valid() bool { return k == KindIn || k == KindOut }

// Formatos de presentación derivados de OccurredAt.
const (
	DisplayDateLayout = "02/01/2006"
	DisplayTimeLayout = "15:04"
)

// Transaction representa un movimiento del libro (entrada o salida de stock).
// ItemKey agrupa (minúsculas); DisplayName es solo cosmético.
type Transaction struct {
	ID          string
	Kind        Kind
	ItemKey     string
	DisplayName string
	Quantity    decimal.Decimal

	// Solo IN
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
	Supplier   string
	Receiver   string

	// Solo OUT
	Person string
	Reason string

	Note       string
	OccurredAt time.Time
	UpdatedAt  *time.Time
	CreatedBy  string
}

// IsIn indica si es una entrada.
func (t Transaction) IsIn() bool { return t.Kind == KindIn }

// IsOut indica si es una salida.
func (t Transaction) IsOut() bool { return t.Kind == KindOut }

// Label nombre a mostrar; cae en ItemKey si no hay DisplayName.
func (t Transaction) Label() string {
	if t.DisplayName != "" {
		return t.DisplayName
	}
	return t.ItemKey
}

// DisplayDate fecha local derivada de OccurredAt ("" si el instante es desconocido).
func (t Transaction) DisplayDate() string {
	if t.OccurredAt.IsZero() {
		return ""
	}
	return t.OccurredAt.Local().Format(DisplayDateLayout)
}

// DisplayTime hora local derivada de OccurredAt.
func (t Transaction) DisplayTime() string {
	if t.OccurredAt.IsZero() {
		return ""
	}
	return t.OccurredAt.Local().Format(DisplayTimeLayout)
}
