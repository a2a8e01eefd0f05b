// Package validation wraps a shared go-playground validator with the custom
// tags used by causal specs, claims and overrides.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance.
var validate *validator.Validate

// embedded marks promoted struct fields so paths can elide them.
const embedded = "~"

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names so messages match what users wrote.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" && f.Anonymous {
			return embedded
		}
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = validate.RegisterValidation("notblank", validateNotBlank)
}

// validateNotBlank rejects strings that are empty after trimming whitespace.
func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// FieldError is one failed constraint.
type FieldError struct {
	Field   string // JSON path, e.g. "spec.nodes[0].kind"
	Tag     string // failed tag, e.g. "required"
	Message string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Struct validates v against its struct tags.
// Returns nil or an error whose text is the first failing field.
func Struct(v any) error {
	fields := Fields(v)
	if len(fields) == 0 {
		return nil
	}
	return fields[0]
}

// Fields validates v and returns every failing field in declaration order.
func Fields(v any) []FieldError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return []FieldError{{Field: "", Tag: "invalid", Message: err.Error()}}
	}

	out := make([]FieldError, 0, len(validationErrs))
	for _, e := range validationErrs {
		out = append(out, FieldError{
			Field:   fieldPath(e.Namespace()),
			Tag:     e.Tag(),
			Message: describe(e),
		})
	}
	return out
}

// fieldPath strips the root struct name and embedded struct segments from
// a validator namespace.
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		namespace = namespace[i+1:]
	}
	namespace = strings.ReplaceAll(namespace, "."+embedded+".", ".")
	return strings.TrimPrefix(namespace, embedded+".")
}

func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "notblank":
		return "field is required"
	case "min":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", e.Param(), fmt.Sprint(e.Value()))
	case "gte":
		return fmt.Sprintf("must be >= %s", e.Param())
	case "lte":
		return fmt.Sprintf("must be <= %s", e.Param())
	default:
		return fmt.Sprintf("validation failed (%s)", e.Tag())
	}
}
