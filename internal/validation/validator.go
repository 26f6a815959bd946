// Package validation checks form drafts with go-playground/validator and
// turns failures into short, user-facing messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError is one failed rule on one field.
type FieldError struct {
	Field   string
	Tag     string
	Message string
}

// Error collects field failures in struct field order.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	return e.Fields[0].Message
}

// Field returns the message for the named field, or "".
func (e *Error) Field(name string) string {
	for _, f := range e.Fields {
		if f.Field == name {
			return f.Message
		}
	}
	return ""
}

// Validator wraps go-playground/validator with client-side rules.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		if i := strings.IndexByte(name, ','); i >= 0 {
			name = name[:i]
		}
		if name == "-" {
			return fld.Name
		}
		return name
	})

	// httpurl only checks the scheme prefix; the service owns the rest.
	_ = v.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
	})

	return &Validator{v: v}
}

// Validate returns nil or an *Error describing every failed field.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}
	out := &Error{Fields: make([]FieldError, 0, len(validationErrs))}
	for _, e := range validationErrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   e.Field(),
			Tag:     e.Tag(),
			Message: friendlyMessage(e),
		})
	}
	return out
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "email":
		return "invalid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", e.Field(), e.Param())
	case "max":
		return fmt.Sprintf("%s must not exceed %s characters", e.Field(), e.Param())
	case "httpurl":
		return e.Field() + " must start with http:// or https://"
	default:
		return e.Field() + " is invalid"
	}
}
