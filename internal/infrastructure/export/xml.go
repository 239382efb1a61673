package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/beevik/etree"

	appexport "github.com/jhoicas/stock-ledger/internal/application/export"
)

var _ appexport.Renderer = (*XMLRenderer)(nil)

// XMLRenderer genera un documento XML:
//
//	<inventory exported="2026-03-10T09:00:00Z">
//	  <transaction><type>IN</type><item>Bolt</item>...</transaction>
//	</inventory>
type XMLRenderer struct{}

// NewXMLRenderer construye el renderizador.
func NewXMLRenderer() *XMLRenderer { return &XMLRenderer{} }

// Render escribe un elemento por fila; las columnas vacías se omiten.
func (XMLRenderer) Render(_ context.Context, s appexport.Sheet) ([]byte, error) {
	tags := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		tags[i] = elementName(c)
		if tags[i] == "" {
			return nil, fmt.Errorf("xml: columna %d sin nombre válido", i)
		}
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement(elementName(s.Title))
	if root.Tag == "" {
		root.Tag = "inventory"
	}
	root.CreateAttr("exported", s.Created.Format(time.RFC3339))

	for _, r := range s.Rows {
		el := root.CreateElement("transaction")
		for i, v := range r {
			if i >= len(tags) || v == "" {
				continue
			}
			el.CreateElement(tags[i]).SetText(v)
		}
	}

	doc.Indent(2)
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("xml: escribir: %w", err)
	}
	return buf.Bytes(), nil
}

// elementName "Unit Price" -> "unitPrice".
func elementName(header string) string {
	var sb strings.Builder
	upper := false
	for _, r := range strings.TrimSpace(header) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if sb.Len() == 0 {
				if !unicode.IsLetter(r) {
					continue
				}
				sb.WriteRune(unicode.ToLower(r))
			} else if upper {
				sb.WriteRune(unicode.ToUpper(r))
			} else {
				sb.WriteRune(r)
			}
			upper = false
		default:
			upper = sb.Len() > 0
		}
	}
	return sb.String()
}
