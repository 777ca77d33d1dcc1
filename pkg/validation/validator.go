package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate
)

func init() {
	validate = validator.New()
}

// Struct validates v against its `validate` struct tags and reports every
// failing field in a user-friendly format.
func Struct(v any) error {
	if v == nil {
		return errors.New("value cannot be nil")
	}
	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	msgs := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		field := e.Namespace()
		param := e.Param()

		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s: field is required", field))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s: must be at least %s", field, param))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s: must not exceed %s", field, param))
		case "gt":
			msgs = append(msgs, fmt.Sprintf("%s: must be greater than %s", field, param))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s: must be at least %s", field, param))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s: must be one of [%s]", field, param))
		case "unique":
			msgs = append(msgs, fmt.Sprintf("%s: entries must be unique", field))
		default:
			msgs = append(msgs, fmt.Sprintf("%s: validation failed (%s)", field, e.Tag()))
		}
	}

	return errors.New(strings.Join(msgs, "; "))
}
