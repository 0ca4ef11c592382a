// Package validation wraps go-playground/validator with a shared instance,
// JSON field naming and the message templates used in API error bodies.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	rgbHexPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
)

// Error reports a single request field that failed a declared constraint.
type Error struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// NewError builds a field error for checks done outside struct tags.
func NewError(field, message string) *Error {
	return &Error{Field: field, Message: message}
}

// Get returns the shared validator, building it on first use.
func Get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})

		// #RRGGBB only; the built-in hexcolor also accepts short and alpha forms.
		_ = validate.RegisterValidation("rgbhex", func(fl validator.FieldLevel) bool {
			return rgbHexPattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// Struct validates s and returns the first failing field as *Error, or nil.
func Struct(s any) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	fe := fieldErrs[0]
	return &Error{Field: fe.Field(), Message: translate(fe)}
}

// Var validates a single value against tag, reporting failures under field.
func Var(field string, value any, tag string) error {
	err := Get().Var(value, tag)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	fe := fieldErrs[0]
	return &Error{Field: field, Message: translateField(field, fe)}
}

var messageTemplates = map[string]string{
	"required": "%s is required",
	"email":    "%s must be a valid email address",
	"rgbhex":   "%s must be a hex color like #RRGGBB",
}

var messageWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"len":   "%s must be exactly %s characters",
}

func translate(fe validator.FieldError) string {
	return translateField(fe.Field(), fe)
}

func translateField(field string, fe validator.FieldError) string {
	tag, param := fe.Tag(), fe.Param()

	if tmpl, ok := messageTemplates[tag]; ok {
		return fmt.Sprintf(tmpl, field)
	}
	if tmpl, ok := messageWithParam[tag]; ok {
		return fmt.Sprintf(tmpl, field, param)
	}

	isCollection := fe.Kind() == reflect.Slice || fe.Kind() == reflect.Array
	isString := fe.Kind() == reflect.String

	switch tag {
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		if isCollection {
			return fmt.Sprintf("%s must contain at least %s items", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		if isCollection {
			return fmt.Sprintf("%s must contain at most %s items", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
