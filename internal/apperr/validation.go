package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ParseValidationErrors turns gin binding failures into a field-by-field validation error.
func ParseValidationErrors(err error) *AppError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &syntaxErr):
			return ErrValidation.WithMessage("request body is not valid JSON").WithError(err)
		case errors.As(err, &typeErr):
			return ErrValidation.WithMessage(fmt.Sprintf("%s has the wrong type", fieldName(typeErr.Field))).WithError(err)
		}
		return ErrValidation.WithError(err)
	}

	fieldErrors := make([]map[string]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		fieldErrors = append(fieldErrors, map[string]string{
			"field":   fieldName(fe.Field()),
			"message": validationMessage(fe),
		})
	}
	return ErrValidation.WithMessage("some fields are invalid").WithDetails(map[string]interface{}{
		"fields": fieldErrors,
	})
}

// FieldError builds a single-field validation error for checks done outside binding.
func FieldError(field, message string) *AppError {
	return ErrValidation.WithMessage(message).WithDetails(map[string]interface{}{
		"fields": []map[string]string{{"field": field, "message": message}},
	})
}

func fieldName(field string) string {
	var b strings.Builder
	for i, r := range field {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func validationMessage(fe validator.FieldError) string {
	name := fieldName(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "email":
		return "email is not a valid address"
	case "min":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "max":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", name, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", name, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", name, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, fe.Param())
	case "numeric":
		return fmt.Sprintf("%s must be numeric", name)
	default:
		return fmt.Sprintf("%s failed the %s check", name, fe.Tag())
	}
}
