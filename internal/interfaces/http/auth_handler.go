package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/auth"
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
)

// AuthHandler maneja registro, login y sesión.
type AuthHandler struct {
	uc  *auth.AuthUseCase
	rep ErrorReporter
}

// NewAuthHandler construye el handler de auth.
func NewAuthHandler(uc *auth.AuthUseCase, rep ErrorReporter) *AuthHandler {
	return &AuthHandler{uc: uc, rep: reporterOrNop(rep)}
}

// Register godoc
// @Summary      Registrar usuario
// @Description  Sin token solo se crean usuarios con rol user; un admin autenticado puede crear admins.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterRequest  true  "username, password, role"
// @Success      201   {object}  dto.UserResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in dto.RegisterRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	caller := Principal(c)
	callerPtr := &caller
	if caller.Username == "" {
		callerPtr = nil
	}
	user, err := h.uc.RegisterUser(c.UserContext(), callerPtr, in)
	if err != nil {
		return writeError(c, h.rep, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login godoc
// @Summary      Iniciar sesión
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "username, password"
// @Success      200   {object}  dto.LoginResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Login(c.UserContext(), in)
	if err != nil {
		// Usuario inexistente y contraseña errónea responden igual.
		if errors.Is(err, domain.ErrUserNotFound) || errors.Is(err, domain.ErrUnauthorized) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "credenciales inválidas"})
		}
		return writeError(c, h.rep, err)
	}
	return c.JSON(out)
}

// Logout godoc
// @Summary      Cerrar sesión
// @Tags         auth
// @Security     Bearer
// @Success      204
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.uc.Logout(c.UserContext()); err != nil {
		return writeError(c, h.rep, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Me godoc
// @Summary      Perfil del usuario autenticado
// @Tags         auth
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.UserResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	u, err := h.uc.Me(c.UserContext(), GetUsername(c))
	if err != nil {
		return writeError(c, h.rep, err)
	}
	return c.JSON(u)
}

// ──────────────────────────────────────────────────────────────────────────────
// Administración de usuarios
// ──────────────────────────────────────────────────────────────────────────────

// ListUsers godoc
// @Summary      Listar usuarios
// @Tags         admin
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.UserResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/admin/users [get]
func (h *AuthHandler) ListUsers(c *fiber.Ctx) error {
	list, err := h.uc.ListUsers(c.UserContext(), Principal(c))
	if err != nil {
		return writeError(c, h.rep, err)
	}
	return c.JSON(list)
}

// ChangeRole godoc
// @Summary      Cambiar el rol de un usuario
// @Tags         admin
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        username  path  string                  true  "Usuario"
// @Param        body      body  dto.ChangeRoleRequest   true  "role"
// @Success      200  {object}  dto.UserResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/admin/users/{username}/role [patch]
func (h *AuthHandler) ChangeRole(c *fiber.Ctx) error {
	var in dto.ChangeRoleRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	u, err := h.uc.ChangeRole(c.UserContext(), Principal(c), c.Params("username"), in.Role)
	if err != nil {
		return writeError(c, h.rep, err)
	}
	return c.JSON(u)
}

// ResetPassword godoc
// @Summary      Restablecer contraseña
// @Tags         admin
// @Security     Bearer
// @Accept       json
// @Param        username  path  string                     true  "Usuario"
// @Param        body      body  dto.ResetPasswordRequest   true  "password"
// @Success      204
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/admin/users/{username}/password [put]
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var in dto.ResetPasswordRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := h.uc.ResetPassword(c.UserContext(), Principal(c), c.Params("username"), in.Password); err != nil {
		return writeError(c, h.rep, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RemoveUser godoc
// @Summary      Eliminar usuario
// @Tags         admin
// @Security     Bearer
// @Param        username  path  string  true  "Usuario"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/admin/users/{username} [delete]
func (h *AuthHandler) RemoveUser(c *fiber.Ctx) error {
	if err := h.uc.RemoveUser(c.UserContext(), Principal(c), c.Params("username")); err != nil {
		return writeError(c, h.rep, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListActivities godoc
// @Summary      Bitácora administrativa
// @Tags         admin
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.ActivityResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/admin/activities [get]
func (h *AuthHandler) ListActivities(c *fiber.Ctx) error {
	list, err := h.uc.ListActivities(c.UserContext(), Principal(c))
	if err != nil {
		return writeError(c, h.rep, err)
	}
	return c.JSON(list)
}
