package stock

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lower = cases.Lower(language.Und)

// NormalizeKey convierte un nombre de artículo en su clave de agrupación
// (sin espacios extremos, minúsculas independientes del idioma).
func NormalizeKey(name string) string {
	return lower.String(strings.TrimSpace(name))
}
