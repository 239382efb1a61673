package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/notification"
	"github.com/jhoicas/stock-ledger/internal/domain"
)

// NotificationHandler maneja el centro de notificaciones (protegido).
type NotificationHandler struct {
	svc *notification.Service
}

// NewNotificationHandler construye el handler.
func NewNotificationHandler(svc *notification.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// List godoc
// @Summary      Listar notificaciones
// @Tags         notifications
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.NotificationListResponse
// @Router       /api/notifications [get]
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	list, err := h.svc.List(c.UserContext())
	if err != nil {
		return writeError(c, h.svc, err)
	}
	out := dto.NotificationListResponse{
		Items: make([]dto.NotificationResponse, 0, len(list)),
		Badge: notification.Badge(len(list)),
	}
	for i, n := range list {
		out.Items = append(out.Items, dto.NotificationResponse{
			Index:     i,
			Message:   n.Message,
			IsWarning: n.IsWarning,
			Date:      n.DisplayDate(),
			Time:      n.DisplayTime(),
			Timestamp: n.Timestamp,
		})
	}
	return c.JSON(out)
}

// Dismiss godoc
// @Summary      Descartar una notificación
// @Tags         notifications
// @Security     Bearer
// @Param        index  path  int  true  "Posición en la lista"
// @Success      204
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/notifications/{index} [delete]
func (h *NotificationHandler) Dismiss(c *fiber.Ctx) error {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil || index < 0 {
		return writeError(c, h.svc, &domain.ValidationError{Fields: []string{"index"}, Message: "índice inválido"})
	}
	if err := h.svc.Dismiss(c.UserContext(), index); err != nil {
		return writeError(c, h.svc, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ClearAll godoc
// @Summary      Eliminar todas las notificaciones
// @Tags         notifications
// @Security     Bearer
// @Success      204
// @Router       /api/notifications [delete]
func (h *NotificationHandler) ClearAll(c *fiber.Ctx) error {
	if err := h.svc.ClearAll(c.UserContext()); err != nil {
		return writeError(c, h.svc, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
