// Package export vuelca el libro completo a un archivo (hoja de cálculo, PDF o XML)
// con las columnas fijas de Columns.
package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// Columns cabecera del volcado, en orden.
var Columns = []string{
	"Type", "Item", "Quantity", "Unit Price", "Total Price", "Supplier",
	"Received By", "Taken By", "Reason", "Note", "Date", "Time",
}

// Mensajes de notificación.
const (
	MessageEmpty = "No hay datos para exportar"
	MessageDone  = "Exportación completada"
)

// Format formato de salida.
type Format string

// Formatos soportados.
const (
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
	FormatXML  Format = "xml"
)

// ParseFormat acepta el formato sin distinguir mayúsculas; vacío es xlsx.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatXLSX:
		return FormatXLSX, nil
	case FormatPDF:
		return FormatPDF, nil
	case FormatXML:
		return FormatXML, nil
	}
	return "", &domain.ValidationError{Fields: []string{"format"}, Message: "Formato no soportado: use xlsx, pdf o xml"}
}

// Sheet tabla a renderizar.
type Sheet struct {
	Title   string
	Columns []string
	Rows    [][]string
	Created time.Time
}

// Renderer convierte una Sheet en los bytes de un formato.
type Renderer interface {
	Render(ctx context.Context, s Sheet) ([]byte, error)
}

// Source de dónde se lee el libro.
type Source interface {
	Transactions(ctx context.Context) ([]entity.Transaction, error)
}

// Notifier notificaciones de resultado.
type Notifier interface {
	Notify(ctx context.Context, message string, warning, persist bool) error
}

// File archivo generado.
type File struct {
	Name        string
	ContentType string
	Content     []byte
}

// UseCase caso de uso de exportación.
type UseCase struct {
	src       Source
	renderers map[Format]Renderer
	notifier  Notifier
	now       func() time.Time
	log       *logger.Logger
}

// NewUseCase construye el caso de uso. notifier puede ser nil; now nil usa time.Now.
func NewUseCase(src Source, renderers map[Format]Renderer, notifier Notifier, log *logger.Logger, now func() time.Time) *UseCase {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{src: src, renderers: renderers, notifier: notifier, now: now, log: log.Named("export")}
}

// Export genera el volcado en format. Un libro vacío devuelve ErrNothingToExport
// y deja una advertencia en el registro de notificaciones.
func (uc *UseCase) Export(ctx context.Context, format Format) (*File, error) {
	r, ok := uc.renderers[format]
	if !ok {
		return nil, &domain.ValidationError{Fields: []string{"format"}, Message: fmt.Sprintf("Formato no disponible: %s", format)}
	}
	txs, err := uc.src.Transactions(ctx)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		uc.notify(ctx, MessageEmpty, true)
		return nil, domain.ErrNothingToExport
	}

	now := uc.now()
	content, err := r.Render(ctx, Sheet{Title: "Inventory", Columns: Columns, Rows: Rows(txs), Created: now})
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", format, err)
	}
	uc.notify(ctx, MessageDone, false)
	uc.log.Info().Str("format", string(format)).Int("rows", len(txs)).Msg("libro exportado")

	return &File{
		Name:        FileName(now, format),
		ContentType: contentType(format),
		Content:     content,
	}, nil
}

func (uc *UseCase) notify(ctx context.Context, message string, warning bool) {
	if uc.notifier == nil {
		return
	}
	if err := uc.notifier.Notify(ctx, message, warning, true); err != nil {
		uc.log.Error().Err(err).Msg("no se pudo registrar la notificación de exportación")
	}
}

// FileName Inventory_Export_<YYYY-MM-DD>.<ext>.
func FileName(now time.Time, format Format) string {
	return fmt.Sprintf("Inventory_Export_%s.%s", now.Format("2006-01-02"), format)
}

// Rows una fila por movimiento en orden de inserción. Las columnas que no aplican
// al tipo quedan vacías; los precios llevan dos decimales.
func Rows(txs []entity.Transaction) [][]string {
	rows := make([][]string, 0, len(txs))
	for _, t := range txs {
		row := make([]string, len(Columns))
		row[0] = string(t.Kind)
		row[1] = t.Label()
		row[2] = t.Quantity.String()
		if t.IsIn() {
			row[3] = t.UnitPrice.StringFixed(2)
			row[4] = t.TotalPrice.StringFixed(2)
			row[5] = t.Supplier
			row[6] = t.Receiver
		} else {
			row[7] = t.Person
			row[8] = t.Reason
		}
		row[9] = t.Note
		row[10] = t.DisplayDate()
		row[11] = t.DisplayTime()
		rows = append(rows, row)
	}
	return rows
}

func contentType(f Format) string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatXML:
		return "application/xml"
	default:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
}
