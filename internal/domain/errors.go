package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrUserNotFound      = errors.New("usuario no encontrado")
	ErrUsernameTaken     = errors.New("el nombre de usuario ya está registrado")
	ErrWeakPassword      = errors.New("la contraseña debe tener al menos 8 caracteres")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrNothingToExport   = errors.New("no hay datos para exportar")
)

// Class clasifica un error para que la capa de presentación decida cómo mostrarlo.
type Class string

const (
	ClassValidation      Class = "validation"
	ClassBusinessRule    Class = "business_rule"
	ClassAuthorization   Class = "authorization"
	ClassCorruption      Class = "storage_corruption"
	ClassNotFound        Class = "not_found"
	ClassUnauthenticated Class = "unauthenticated"
	ClassInternal        Class = "internal"
)

// ValidationError campo obligatorio ausente o inválido en la entrada.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(e.Fields, ", "))
}

// Unwrap permite errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// BusinessRuleViolation salida mayor que el stock disponible.
type BusinessRuleViolation struct {
	ItemKey     string
	DisplayName string
	Requested   decimal.Decimal
	Available   decimal.Decimal
}

func (e *BusinessRuleViolation) Error() string {
	return fmt.Sprintf("no se puede retirar %s %s: solo hay %s disponibles",
		e.Requested.String(), e.DisplayName, e.Available.String())
}

// Unwrap permite errors.Is(err, ErrInsufficientStock).
func (e *BusinessRuleViolation) Unwrap() error { return ErrInsufficientStock }

// AuthorizationDenied un usuario sin rol admin intentó una acción de escritura.
type AuthorizationDenied struct {
	Username string
	Action   string
}

func (e *AuthorizationDenied) Error() string {
	return fmt.Sprintf("acceso denegado: solo administradores pueden ejecutar %q", e.Action)
}

// Unwrap permite errors.Is(err, ErrForbidden).
func (e *AuthorizationDenied) Unwrap() error { return ErrForbidden }

// StorageCorruption el blob persistido no se pudo decodificar. Se recupera localmente
// con una colección vacía; nunca llega al usuario como fallo.
type StorageCorruption struct {
	Key string
	Err error
}

func (e *StorageCorruption) Error() string {
	return fmt.Sprintf("blob %q corrupto: %v", e.Key, e.Err)
}

func (e *StorageCorruption) Unwrap() error { return e.Err }

// Classify devuelve la clase de un error del dominio.
func Classify(err error) Class {
	var (
		ve *ValidationError
		bv *BusinessRuleViolation
		ad *AuthorizationDenied
		sc *StorageCorruption
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve), errors.Is(err, ErrInvalidInput), errors.Is(err, ErrWeakPassword):
		return ClassValidation
	case errors.As(err, &bv), errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrUsernameTaken):
		return ClassBusinessRule
	case errors.As(err, &ad), errors.Is(err, ErrForbidden):
		return ClassAuthorization
	case errors.As(err, &sc):
		return ClassCorruption
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUserNotFound), errors.Is(err, ErrNothingToExport):
		return ClassNotFound
	case errors.Is(err, ErrUnauthorized):
		return ClassUnauthenticated
	default:
		return ClassInternal
	}
}
