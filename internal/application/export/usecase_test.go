package export_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/export"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ─── Dobles ───────────────────────────────────────────────────────────────────

type staticSource struct {
	txs []entity.Transaction
	err error
}

func (s staticSource) Transactions(context.Context) ([]entity.Transaction, error) { return s.txs, s.err }

type captureRenderer struct {
	got export.Sheet
	err error
}

func (r *captureRenderer) Render(_ context.Context, s export.Sheet) ([]byte, error) {
	r.got = s
	return []byte("ok"), r.err
}

type notice struct {
	msg     string
	warning bool
}

type captureNotifier struct{ got []notice }

func (n *captureNotifier) Notify(_ context.Context, msg string, warning, _ bool) error {
	n.got = append(n.got, notice{msg, warning})
	return nil
}

var now = time.Date(2026, 3, 12, 8, 0, 0, 0, time.UTC)

func fixture() []entity.Transaction {
	return []entity.Transaction{
		{
			ID: "1", Kind: entity.KindIn, ItemKey: "bolt", DisplayName: "Bolt",
			Quantity: decimal.NewFromInt(10), UnitPrice: decimal.RequireFromString("2.5"),
			TotalPrice: decimal.NewFromInt(25), Supplier: "Acme", Receiver: "Ana",
			OccurredAt: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		},
		{
			ID: "2", Kind: entity.KindOut, ItemKey: "bolt", DisplayName: "bolt",
			Quantity: decimal.NewFromInt(3), Person: "Luis", Reason: "Obra", Note: "urgente",
			OccurredAt: time.Date(2026, 3, 11, 14, 30, 0, 0, time.UTC),
		},
	}
}

// ─── Export ───────────────────────────────────────────────────────────────────

func TestExport_GeneraArchivoYNotifica(t *testing.T) {
	r := &captureRenderer{}
	n := &captureNotifier{}
	uc := export.NewUseCase(staticSource{txs: fixture()}, map[export.Format]export.Renderer{export.FormatXLSX: r}, n, nil, func() time.Time { return now })

	f, err := uc.Export(context.Background(), export.FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, "Inventory_Export_2026-03-12.xlsx", f.Name)
	assert.Equal(t, []byte("ok"), f.Content)
	assert.Contains(t, f.ContentType, "spreadsheetml")

	assert.Equal(t, export.Columns, r.got.Columns)
	require.Len(t, r.got.Rows, 2)
	assert.Equal(t, []notice{{export.MessageDone, false}}, n.got)
}

func TestExport_LibroVacio(t *testing.T) {
	n := &captureNotifier{}
	uc := export.NewUseCase(staticSource{}, map[export.Format]export.Renderer{export.FormatXLSX: &captureRenderer{}}, n, nil, nil)

	_, err := uc.Export(context.Background(), export.FormatXLSX)
	assert.ErrorIs(t, err, domain.ErrNothingToExport)
	assert.Equal(t, []notice{{export.MessageEmpty, true}}, n.got)
}

func TestExport_FormatoSinRenderer(t *testing.T) {
	uc := export.NewUseCase(staticSource{txs: fixture()}, nil, nil, nil, nil)
	_, err := uc.Export(context.Background(), export.FormatPDF)
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestExport_ErrorDeRender(t *testing.T) {
	boom := errors.New("boom")
	n := &captureNotifier{}
	uc := export.NewUseCase(staticSource{txs: fixture()}, map[export.Format]export.Renderer{export.FormatPDF: &captureRenderer{err: boom}}, n, nil, nil)
	_, err := uc.Export(context.Background(), export.FormatPDF)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, n.got)
}

// ─── Filas y formatos ─────────────────────────────────────────────────────────

func TestRows_ColumnasPorTipo(t *testing.T) {
	rows := export.Rows(fixture())
	require.Len(t, rows, 2)
	txs := fixture()
	assert.Equal(t, []string{"IN", "Bolt", "10", "2.50", "25.00", "Acme", "Ana", "", "", ""}, rows[0][:10])
	assert.Equal(t, txs[0].DisplayDate(), rows[0][10])
	assert.Equal(t, txs[0].DisplayTime(), rows[0][11])
	assert.Equal(t, "", rows[1][3], "salida sin precio")
	assert.Equal(t, "Luis", rows[1][7])
	assert.Equal(t, "Obra", rows[1][8])
	assert.Equal(t, "urgente", rows[1][9])
}

func TestParseFormat(t *testing.T) {
	cases := map[string]export.Format{"": export.FormatXLSX, "PDF": export.FormatPDF, " xml ": export.FormatXML}
	for in, want := range cases {
		got, err := export.ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := export.ParseFormat("csv")
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
}
