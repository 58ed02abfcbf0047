// Package validate envuelve go-playground/validator para los cuerpos de request
// y traduce el primer fallo a un *validation.Error del dominio.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"pet-vaccine-tracker/internal/domain/validation"

	"github.com/go-playground/validator/v10"
)

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Nombres de campo según el tag json, para que el error coincida con el payload.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{v: v}
}

func (x *Validator) Struct(s any) error {
	err := x.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate: %w", err)
	}

	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required", "required_without":
		return validation.Missing(field)
	case "gte", "lte", "gt", "lt", "numeric":
		return &validation.Error{Kind: validation.KindInvalidNumber, Field: field, Value: fmt.Sprint(fe.Value())}
	case "datetime":
		return &validation.Error{Kind: validation.KindInvalidDate, Field: field, Value: fmt.Sprint(fe.Value())}
	default:
		return &validation.Error{Kind: validation.KindInvalidFormat, Field: field, Value: fmt.Sprint(fe.Value())}
	}
}
