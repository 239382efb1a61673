package dto

import "github.com/shopspring/decimal"

// DashboardResponse respuesta de GET /api/dashboard.
type DashboardResponse struct {
	TotalIn          decimal.Decimal       `json:"total_in"`
	TotalOut         decimal.Decimal       `json:"total_out"`
	MostFrequentItem string                `json:"most_frequent_item"` // "-" si el libro está vacío
	Levels           []StockLevelDTO       `json:"levels"`             // orden de primera aparición
	RecentIn         []TransactionResponse `json:"recent_in"`          // 5 entradas más recientes
	RecentOut        []TransactionResponse `json:"recent_out"`         // 5 salidas más recientes
	Chart            []ChartSliceDTO       `json:"chart"`
}

// ChartSliceDTO porción del gráfico de niveles.
type ChartSliceDTO struct {
	Label      string          `json:"label"`
	Value      decimal.Decimal `json:"value"`
	Percentage decimal.Decimal `json:"percentage"` // sobre la suma de valores positivos
	Color      string          `json:"color"`      // hsl(h, 70%, 60%)
}

// FilterOptionDTO artículo seleccionable en el filtro del tablero.
type FilterOptionDTO struct {
	ItemKey     string `json:"item_key"`
	DisplayName string `json:"display_name"`
}
