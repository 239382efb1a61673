package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
)

// userLookup es el contrato mínimo que necesita el middleware para releer el usuario.
// Lo implementa *auth.AuthUseCase.
type userLookup interface {
	Me(ctx context.Context, username string) (*dto.UserResponse, error)
}

// RefreshRole relee el rol vigente del usuario del token; un cambio de rol o una baja
// surten efecto sin esperar a que expire el JWT. Debe usarse DESPUÉS de AuthMiddleware.
//
// Comportamiento:
//   - 401 Unauthorized → el usuario ya no existe.
//   - 503 Service Unavailable → fallo del almacenamiento al consultar el usuario.
func RefreshRole(users userLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		username := GetUsername(c)
		if username == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "usuario no encontrado en el token"})
		}
		u, err := users.Me(c.UserContext(), username)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "el usuario ya no existe"})
			}
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "SERVICE_UNAVAILABLE", Message: "no se pudo verificar el usuario"})
		}
		c.Locals(LocalUsername, u.Username)
		c.Locals(LocalRole, u.Role)
		return c.Next()
	}
}
