package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/export"
)

// ExportHandler descarga el libro como archivo (protegido).
type ExportHandler struct {
	uc  *export.UseCase
	rep ErrorReporter
}

// NewExportHandler construye el handler.
func NewExportHandler(uc *export.UseCase, rep ErrorReporter) *ExportHandler {
	return &ExportHandler{uc: uc, rep: reporterOrNop(rep)}
}

// Export godoc
// @Summary      Exportar el libro
// @Description  Devuelve Inventory_Export_<fecha>.<ext>. 404 NOTHING_TO_EXPORT si el libro está vacío.
// @Tags         export
// @Security     Bearer
// @Produce      application/octet-stream
// @Param        format  query  string  false  "xlsx (por defecto) | pdf | xml"
// @Success      200
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/export [get]
func (h *ExportHandler) Export(c *fiber.Ctx) error {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		return writeError(c, h.rep, err)
	}
	f, err := h.uc.Export(c.UserContext(), format)
	if err != nil {
		// El caso de uso ya dejó la advertencia de libro vacío en el registro.
		status, body := errorResponse(err)
		if status == fiber.StatusInternalServerError {
			h.rep.Report(c.UserContext(), err)
		}
		return c.Status(status).JSON(body)
	}
	c.Set(fiber.HeaderContentType, f.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, f.Name))
	return c.Send(f.Content)
}
