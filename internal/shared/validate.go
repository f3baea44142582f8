package shared

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// ValidateStruct checks validate tags on v and reports the first failing
// field as a ValidationError keyed by its json name.
func ValidateStruct(v any) error {
	err := structValidator.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return fieldError(fieldErrs[0])
	}
	return err
}

func fieldError(fe validator.FieldError) error {
	switch fe.Tag() {
	case "required":
		return NewValidationError(fe.Field(), "is required")
	case "max":
		return NewValidationError(fe.Field(), fmt.Sprintf("must be at most %s characters", fe.Param()))
	case "gte", "min":
		return NewValidationError(fe.Field(), fmt.Sprintf("must be at least %s", fe.Param()))
	default:
		return NewValidationError(fe.Field(), fmt.Sprintf("failed %s check", fe.Tag()))
	}
}
