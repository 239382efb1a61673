package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/export"
)

func TestRender_GeneraPDF(t *testing.T) {
	s := export.Sheet{
		Title:   "Inventory",
		Columns: export.Columns,
		Rows: [][]string{
			{"IN", "Bolt", "10", "2.50", "25.00", "Acme", "Ana", "", "", "", "10/03/2026", "09:00"},
		},
		Created: time.Date(2026, 3, 12, 8, 0, 0, 0, time.UTC),
	}
	content, err := NewMarotoPDFGenerator().Render(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF")), "cabecera PDF")
}

func TestRender_DemasiadasColumnas(t *testing.T) {
	cols := make([]string, gridSize+1)
	_, err := NewMarotoPDFGenerator().Render(context.Background(), export.Sheet{Columns: cols})
	assert.Error(t, err)
}
