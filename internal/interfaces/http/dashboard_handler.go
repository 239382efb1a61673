package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dashboard"
)

// DashboardHandler maneja los endpoints del tablero.
type DashboardHandler struct {
	uc  *dashboard.UseCase
	rep ErrorReporter
}

// NewDashboardHandler construye el handler.
func NewDashboardHandler(uc *dashboard.UseCase, rep ErrorReporter) *DashboardHandler {
	return &DashboardHandler{uc: uc, rep: reporterOrNop(rep)}
}

// GetSummary devuelve totales, artículo más frecuente, niveles, recientes y gráfico.
// GET /api/dashboard?items=a,b
//
// items restringe solo las filas de niveles y el gráfico.
func (h *DashboardHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.uc.Summary(c.UserContext(), dashboard.Filter{Items: dashboard.ParseItems(c.Query("items"))})
	if err != nil {
		return writeError(c, h.rep, err)
	}
	return c.JSON(summary)
}

// GetFilters artículos disponibles para el filtro del tablero.
// GET /api/dashboard/filters
func (h *DashboardHandler) GetFilters(c *fiber.Ctx) error {
	opts, err := h.uc.FilterOptions(c.UserContext())
	if err != nil {
		return writeError(c, h.rep, err)
	}
	return c.JSON(opts)
}
