// Package pdf implementa el volcado del libro en PDF con Maroto v2.
//
// Layout de la página A4 apaisada:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título                       │  Fecha de generación │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Type | Item | Quantity | ... | Date | Time            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: N° movimientos                                     │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jhoicas/stock-ledger/internal/application/export"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// gridSize columnas de la grilla de Maroto; una por columna del volcado.
const gridSize = 12

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa export.Renderer usando Maroto v2.
type MarotoPDFGenerator struct {
	printer *message.Printer
}

var _ export.Renderer = (*MarotoPDFGenerator)(nil)

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator {
	return &MarotoPDFGenerator{printer: message.NewPrinter(language.Spanish)}
}

// Render genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) Render(_ context.Context, s export.Sheet) ([]byte, error) {
	if len(s.Columns) > gridSize {
		return nil, fmt.Errorf("pdf: %d columnas no caben en la grilla de %d", len(s.Columns), gridSize)
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithOrientation(orientation.Horizontal).
		WithLeftMargin(8).WithRightMargin(8).
		WithTopMargin(8).WithBottomMargin(8).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 7}).
		WithTitle(s.Title, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(s))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow(s.Columns))
	m.AddRows(tableRows(s.Rows, len(s.Columns))...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(row.New(8).Add(col.New(gridSize).Add(
		text.New(g.printer.Sprintf("Movimientos: %d", len(s.Rows)), props.Text{
			Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 2,
		}),
	)))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: título (izq) y fecha de generación (der).
func headerRow(s export.Sheet) core.Row {
	return row.New(14).Add(
		col.New(8).Add(
			text.New(s.Title, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
		),
		col.New(4).Add(
			text.New("Generado: "+s.Created.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 4, Color: colorGray,
			}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla.
func tableHeaderRow(columns []string) core.Row {
	cols := make([]core.Col, 0, len(columns))
	for _, c := range columns {
		cols = append(cols, text.NewCol(1, c, props.Text{
			Style: fontstyle.Bold, Size: 7, Color: colorPrimary, Top: 1, Left: 0.5,
		}))
	}
	return row.New(7).Add(cols...)
}

// tableRows: una fila por movimiento.
func tableRows(rows [][]string, width int) []core.Row {
	result := make([]core.Row, 0, len(rows))
	for _, r := range rows {
		cols := make([]core.Col, 0, width)
		for i := 0; i < width; i++ {
			value := ""
			if i < len(r) {
				value = r[i]
			}
			cols = append(cols, text.NewCol(1, value, props.Text{Size: 6.5, Top: 1, Left: 0.5}))
		}
		result = append(result, row.New(6).Add(cols...))
	}
	return result
}
