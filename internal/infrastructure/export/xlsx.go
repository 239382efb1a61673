// Package export contiene los renderizadores de hoja de cálculo y XML del volcado del libro.
package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	appexport "github.com/jhoicas/stock-ledger/internal/application/export"
)

var _ appexport.Renderer = (*XLSXRenderer)(nil)

// XLSXRenderer genera un libro de Excel con una hoja.
type XLSXRenderer struct{}

// NewXLSXRenderer construye el renderizador.
func NewXLSXRenderer() *XLSXRenderer { return &XLSXRenderer{} }

// Render escribe cabecera en negrita y una fila por movimiento.
func (XLSXRenderer) Render(_ context.Context, s appexport.Sheet) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := s.Title
	if sheet == "" {
		sheet = "Sheet1"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("xlsx: nombrar hoja: %w", err)
	}

	header := make([]interface{}, len(s.Columns))
	for i, c := range s.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("xlsx: cabecera: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsx: estilo: %w", err)
	}
	if len(s.Columns) > 0 {
		last, err := excelize.CoordinatesToCellName(len(s.Columns), 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
			return nil, fmt.Errorf("xlsx: estilo cabecera: %w", err)
		}
	}

	for i, r := range s.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, len(r))
		for j, v := range r {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("xlsx: fila %d: %w", i+1, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("xlsx: escribir: %w", err)
	}
	return buf.Bytes(), nil
}
