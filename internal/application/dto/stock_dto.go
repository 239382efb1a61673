package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockInRequest body para POST /api/stock/in.
type StockInRequest struct {
	Item       string          `json:"item" validate:"required"`
	Quantity   decimal.Decimal `json:"quantity" validate:"dgt0"`
	UnitPrice  decimal.Decimal `json:"unit_price" validate:"dgt0"`
	Supplier   string          `json:"supplier" validate:"required"`
	Receiver   string          `json:"receiver" validate:"required"`
	Note       string          `json:"note,omitempty"`
	OccurredAt *time.Time      `json:"occurred_at,omitempty"` // por defecto: ahora
}

// StockOutRequest body para POST /api/stock/out. La cantidad debe ser entera.
type StockOutRequest struct {
	Item       string          `json:"item" validate:"required"`
	Quantity   decimal.Decimal `json:"quantity" validate:"dgt0,dinteger"`
	Person     string          `json:"person" validate:"required"`
	Reason     string          `json:"reason,omitempty"`
	Note       string          `json:"note,omitempty"`
	OccurredAt *time.Time      `json:"occurred_at,omitempty"`
}

// TransactionPatch body para PATCH /api/stock/movements/:id; solo se aplican los campos presentes.
// El tipo (IN/OUT) no se puede cambiar.
type TransactionPatch struct {
	Item       *string          `json:"item,omitempty"`
	Quantity   *decimal.Decimal `json:"quantity,omitempty"`
	UnitPrice  *decimal.Decimal `json:"unit_price,omitempty"`
	Supplier   *string          `json:"supplier,omitempty"`
	Receiver   *string          `json:"receiver,omitempty"`
	Person     *string          `json:"person,omitempty"`
	Reason     *string          `json:"reason,omitempty"`
	Note       *string          `json:"note,omitempty"`
	OccurredAt *time.Time       `json:"occurred_at,omitempty"`
}

// TransactionResponse movimiento del libro con fecha y hora derivadas del instante.
type TransactionResponse struct {
	ID          string           `json:"id"`
	Kind        string           `json:"kind"`
	ItemKey     string           `json:"item_key"`
	DisplayName string           `json:"display_name"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	TotalPrice  *decimal.Decimal `json:"total_price,omitempty"`
	Supplier    string           `json:"supplier,omitempty"`
	Receiver    string           `json:"receiver,omitempty"`
	Person      string           `json:"person,omitempty"`
	Reason      string           `json:"reason,omitempty"`
	Note        string           `json:"note,omitempty"`
	OccurredAt  *time.Time       `json:"occurred_at,omitempty"`
	UpdatedAt   *time.Time       `json:"updated_at,omitempty"`
	Date        string           `json:"date"`
	Time        string           `json:"time"`
	CreatedBy   string           `json:"created_by,omitempty"`
}

// MutationResponse resultado de una entrada, salida o edición.
type MutationResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	Level       decimal.Decimal     `json:"level"`             // nivel del artículo tras la mutación
	LowStock    bool                `json:"low_stock"`         // nivel bajo el umbral
	Warning     string              `json:"warning,omitempty"` // aviso no bloqueante
}

// StockLevelDTO nivel de un artículo.
type StockLevelDTO struct {
	ItemKey     string          `json:"item_key"`
	DisplayName string          `json:"display_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	LowStock    bool            `json:"low_stock"`
}

// ItemOptionDTO opción del selector de artículos de salida.
type ItemOptionDTO struct {
	ItemKey     string          `json:"item_key"`
	DisplayName string          `json:"display_name"`
	Available   decimal.Decimal `json:"available"`
}

// VersionResponse marca de cambio de stockData (unix ms).
type VersionResponse struct {
	Version int64 `json:"version"`
}
