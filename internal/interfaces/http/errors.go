package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
)

// ErrorReporter presenta un error según su clase (toast, registro). Lo implementa
// *notification.Service.
type ErrorReporter interface {
	Report(ctx context.Context, err error)
}

type nopReporter struct{}

func (nopReporter) Report(context.Context, error) {}

func reporterOrNop(r ErrorReporter) ErrorReporter {
	if r == nil {
		return nopReporter{}
	}
	return r
}

// writeError reporta err y responde con el código HTTP de su clase.
func writeError(c *fiber.Ctx, rep ErrorReporter, err error) error {
	rep.Report(c.UserContext(), err)
	status, body := errorResponse(err)
	return c.Status(status).JSON(body)
}

// errorResponse traduce un error de caso de uso a status y cuerpo.
func errorResponse(err error) (int, dto.ErrorResponse) {
	switch domain.Classify(err) {
	case domain.ClassValidation:
		body := dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()}
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			body.Message = ve.Message
			body.Fields = ve.Fields
		}
		return fiber.StatusBadRequest, body
	case domain.ClassBusinessRule:
		var bv *domain.BusinessRuleViolation
		if errors.As(err, &bv) {
			available := bv.Available
			return fiber.StatusConflict, dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: err.Error(), Available: &available}
		}
		if errors.Is(err, domain.ErrUsernameTaken) {
			return fiber.StatusConflict, dto.ErrorResponse{Code: "USERNAME_TAKEN", Message: "el nombre de usuario ya existe"}
		}
		return fiber.StatusConflict, dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()}
	case domain.ClassAuthorization:
		return fiber.StatusForbidden, dto.ErrorResponse{Code: "FORBIDDEN", Message: err.Error()}
	case domain.ClassNotFound:
		if errors.Is(err, domain.ErrNothingToExport) {
			return fiber.StatusNotFound, dto.ErrorResponse{Code: "NOTHING_TO_EXPORT", Message: err.Error()}
		}
		return fiber.StatusNotFound, dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()}
	case domain.ClassUnauthenticated:
		return fiber.StatusUnauthorized, dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "credenciales inválidas"}
	default:
		return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"}
	}
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
