// Package validation valida los DTOs de entrada con go-playground/validator y
// convierte los fallos en *domain.ValidationError.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Nombres de campo según el tag json.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// decimal.Decimal llega a las validaciones como su representación exacta; las
	// reglas numéricas sobre decimales son dgt0 y dinteger, nunca gt/gte.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("dgt0", func(fl validator.FieldLevel) bool {
		d, ok := decimalField(fl)
		return ok && d.IsPositive()
	})
	_ = v.RegisterValidation("dinteger", func(fl validator.FieldLevel) bool {
		d, ok := decimalField(fl)
		return ok && d.IsInteger()
	})
	return v
}

func decimalField(fl validator.FieldLevel) (decimal.Decimal, bool) {
	field := fl.Field()
	if field.Kind() == reflect.String {
		d, err := decimal.NewFromString(field.String())
		return d, err == nil
	}
	if field.CanInterface() {
		d, ok := field.Interface().(decimal.Decimal)
		return d, ok
	}
	return decimal.Decimal{}, false
}

// Struct valida s; nil si es válido, *domain.ValidationError si no.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &domain.ValidationError{Message: err.Error()}
	}
	out := &domain.ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, fe.Field())
		if out.Message == "" || fe.Tag() == "required" {
			out.Message = messageFor(fe)
		}
	}
	return out
}

// Invalid construye un ValidationError para comprobaciones fuera de los tags.
func Invalid(message string, fields ...string) error {
	return &domain.ValidationError{Fields: fields, Message: message}
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Complete todos los campos obligatorios"
	case "dgt0":
		return "La cantidad y el precio deben ser números positivos"
	case "dinteger":
		return "La cantidad debe ser un número entero positivo"
	case "oneof":
		return "Valor no permitido: debe ser uno de " + fe.Param()
	case "min":
		return "Debe tener al menos " + fe.Param() + " caracteres"
	case "max":
		return "Debe tener como máximo " + fe.Param() + " caracteres"
	default:
		return "Valor inválido"
	}
}
