package entity

import "time"

// StockDataChanged se publica cada vez que stockData se reescribe.
type StockDataChanged struct {
	Reason string // tipo de actividad que provocó el cambio
	At     time.Time
}
