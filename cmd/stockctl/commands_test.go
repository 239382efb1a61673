package main

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
)

func TestLevelsMarkdown(t *testing.T) {
	md := levelsMarkdown([]dto.StockLevelDTO{
		{DisplayName: "Bolt", Quantity: decimal.NewFromInt(12)},
		{DisplayName: "Nut|M6", Quantity: decimal.NewFromInt(3), LowStock: true},
	})
	assert.Contains(t, md, "| Bolt | 12 | ok |")
	assert.Contains(t, md, `| Nut\|M6 | 3 | **low** |`)
}

func TestLevelsMarkdown_Vacio(t *testing.T) {
	assert.Contains(t, levelsMarkdown(nil), "No items in the ledger")
}
