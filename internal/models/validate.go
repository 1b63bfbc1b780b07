package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Field length limits.
const (
	maxNameLen        = 255
	maxTextLen        = 10000
	maxShortFieldLen  = 500
	maxListFieldItems = 200
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names so messages match the request body.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return v
}

// checkStruct runs the struct-tag rules and converts the first failure into a
// *ValidationError with a readable message.
func checkStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fieldError(verrs[0])
	}

	return NewValidationError(err.Error())
}

func fieldError(fe validator.FieldError) error {
	name := fe.Field()

	switch fe.Tag() {
	case "oneof":
		return NewValidationError(fmt.Sprintf("%s must be one of: %s", name, strings.ReplaceAll(fe.Param(), " ", ", ")))
	case "uuid":
		return NewValidationError(name + " must be a valid id")
	case "datetime":
		return NewValidationError(name + " must be a date in YYYY-MM-DD format")
	case "email":
		return NewValidationError(name + " must be a valid email address")
	case "min", "gte":
		return NewValidationError(fmt.Sprintf("%s must be at least %s", name, fe.Param()))
	case "max", "lte":
		return NewValidationError(fmt.Sprintf("%s must be at most %s", name, fe.Param()))
	default:
		return NewValidationError(name + " is invalid")
	}
}

// trimPtr trims whitespace and collapses empty optional strings to nil.
func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}

	s := strings.TrimSpace(*p)
	if s == "" {
		return nil
	}

	return &s
}

// trimIDPtr is trimPtr for UUID references, which are compared in lower case.
func trimIDPtr(p *string) *string {
	p = trimPtr(p)
	if p != nil {
		*p = strings.ToLower(*p)
	}

	return p
}

func checkLen(field string, p *string, maxLen int) error {
	if p != nil && len(*p) > maxLen {
		return ErrFieldTooLong(field, maxLen)
	}

	return nil
}

// checkDateOrder rejects a range whose end precedes its start. Both values are
// already validated YYYY-MM-DD strings, so lexical order equals date order.
func checkDateOrder(startField string, start *string, endField string, end *string) error {
	if start != nil && end != nil && *end < *start {
		return NewValidationError(fmt.Sprintf("%s must not be before %s", endField, startField))
	}

	return nil
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }
