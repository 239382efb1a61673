package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/application/view"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// InventoryHandler maneja las peticiones HTTP del libro de stock (protegido).
type InventoryHandler struct {
	uc  *ledger.UseCase
	rep ErrorReporter
	loc *time.Location
}

// NewInventoryHandler construye el handler. loc zona de los filtros por día (nil: local).
func NewInventoryHandler(uc *ledger.UseCase, rep ErrorReporter, loc *time.Location) *InventoryHandler {
	if loc == nil {
		loc = time.Local
	}
	return &InventoryHandler{uc: uc, rep: reporterOrNop(rep), loc: loc}
}

// StockIn godoc
// @Summary      Registrar entrada de stock
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.StockInRequest  true  "item, quantity, unit_price, supplier, receiver, note"
// @Success      201   {object}  dto.MutationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/stock/in [post]
func (h *InventoryHandler) StockIn(c *fiber.Ctx) error {
	var in dto.StockInRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.StockIn(c.UserContext(), Principal(c), in)
	if err != nil {
		return writeError(c, h.rep, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// StockOut godoc
// @Summary      Registrar salida de stock
// @Description  Rechaza con 409 y el disponible si la cantidad supera el stock.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.StockOutRequest  true  "item, quantity, person, reason, note"
// @Success      201   {object}  dto.MutationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/out [post]
func (h *InventoryHandler) StockOut(c *fiber.Ctx) error {
	var in dto.StockOutRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.StockOut(c.UserContext(), Principal(c), in)
	if err != nil {
		return writeError(c, h.rep, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateMovement godoc
// @Summary      Editar un movimiento
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                true  "ID del movimiento"
// @Param        body  body  dto.TransactionPatch  true  "campos a modificar"
// @Success      200   {object}  dto.MutationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/movements/{id} [patch]
func (h *InventoryHandler) UpdateMovement(c *fiber.Ctx) error {
	var patch dto.TransactionPatch
	if err := c.BodyParser(&patch); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Update(c.UserContext(), Principal(c), c.Params("id"), patch)
	if err != nil {
		return writeError(c, h.rep, err)
	}
	return c.JSON(out)
}

// DeleteMovement godoc
// @Summary      Eliminar un movimiento
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del movimiento"
// @Success      200  {object}  dto.TransactionResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/movements/{id} [delete]
func (h *InventoryHandler) DeleteMovement(c *fiber.Ctx) error {
	out, err := h.uc.Delete(c.UserContext(), Principal(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.rep, err)
	}
	return c.JSON(out)
}

// ListMovements godoc
// @Summary      Listar movimientos
// @Description  Del más reciente al más antiguo. start sin end filtra un solo día.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        kind   query  string  false  "in | out"
// @Param        q      query  string  false  "Búsqueda por texto"
// @Param        start  query  string  false  "YYYY-MM-DD"
// @Param        end    query  string  false  "YYYY-MM-DD"
// @Success      200  {array}   dto.TransactionResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	f := ledger.ListFilter{Keyword: c.Query("q")}
	switch strings.ToUpper(strings.TrimSpace(c.Query("kind"))) {
	case "":
	case string(entity.KindIn):
		f.Kind = entity.KindIn
	case string(entity.KindOut):
		f.Kind = entity.KindOut
	default:
		return writeError(c, h.rep, &domain.ValidationError{Fields: []string{"kind"}, Message: "kind debe ser in u out"})
	}
	r, err := view.DayRange(c.Query("start"), c.Query("end"), h.loc)
	if err != nil {
		return writeError(c, h.rep, &domain.ValidationError{Fields: []string{"start", "end"}, Message: err.Error()})
	}
	f.Range = r

	list, err := h.uc.List(c.UserContext(), f)
	if err != nil {
		return writeError(c, h.rep, err)
	}
	return c.JSON(list)
}

// GetMovement godoc
// @Summary      Obtener un movimiento
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del movimiento"
// @Success      200  {object}  dto.TransactionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/movements/{id} [get]
func (h *InventoryHandler) GetMovement(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.rep, err)
	}
	return c.JSON(out)
}

// Levels godoc
// @Summary      Niveles de stock
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.StockLevelDTO
// @Router       /api/stock/levels [get]
func (h *InventoryHandler) Levels(c *fiber.Ctx) error {
	list, err := h.uc.Levels(c.UserContext())
	if err != nil {
		return writeError(c, h.rep, err)
	}
	return c.JSON(list)
}

// Level godoc
// @Summary      Nivel de un artículo
// @Description  Cero para artículos sin movimientos.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        itemKey  path  string  true  "Artículo"
// @Success      200  {object}  dto.StockLevelDTO
// @Router       /api/stock/levels/{itemKey} [get]
func (h *InventoryHandler) Level(c *fiber.Ctx) error {
	out, err := h.uc.Level(c.UserContext(), c.Params("itemKey"))
	if err != nil {
		return writeError(c, h.rep, err)
	}
	return c.JSON(out)
}

// Items godoc
// @Summary      Artículos seleccionables para una salida
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        q  query  string  false  "Filtro por nombre"
// @Success      200  {array}  dto.ItemOptionDTO
// @Router       /api/stock/items [get]
func (h *InventoryHandler) Items(c *fiber.Ctx) error {
	list, err := h.uc.ItemOptions(c.UserContext(), c.Query("q"))
	if err != nil {
		return writeError(c, h.rep, err)
	}
	return c.JSON(list)
}

// Version godoc
// @Summary      Marca de cambio del libro
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.VersionResponse
// @Router       /api/stock/version [get]
func (h *InventoryHandler) Version(c *fiber.Ctx) error {
	v, err := h.uc.Version(c.UserContext())
	if err != nil {
		return writeError(c, h.rep, err)
	}
	return c.JSON(dto.VersionResponse{Version: v})
}
