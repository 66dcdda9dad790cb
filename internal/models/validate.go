package models

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return v
}

// validateStruct runs tag validation and reports the first failing field as a
// validation error. Fields are checked in declaration order.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return NewValidationError("invalid payload: %v", err)
	}

	fe := verrs[0]

	switch fe.Tag() {
	case "required":
		return NewValidationError("%s is required", fe.Field())
	case "oneof":
		return NewValidationError("%s must be one of [%s], got %q", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "), fe.Value())
	case "uuid":
		return NewValidationError("%s must be a valid uuid", fe.Field())
	case "max":
		return NewValidationError("%s exceeds maximum length of %s", fe.Field(), fe.Param())
	case "min", "gte":
		return NewValidationError("%s must be at least %s", fe.Field(), fe.Param())
	default:
		return NewValidationError("%s is invalid", fe.Field())
	}
}
