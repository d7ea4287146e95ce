package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

var validate = validator.New()

func init() {
	// notblank rejects whitespace-only strings, which "required" accepts.
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// ValidateStruct validates a struct based on its validation tags and returns
// an AppError of type VALIDATION on failure.
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError formats validation errors into readable messages
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		messages := make([]string, 0, len(validationErrors))
		fields := make(map[string]interface{}, len(validationErrors))
		for _, e := range validationErrors {
			msg := formatFieldError(e)
			messages = append(messages, msg)
			fields[strings.ToLower(e.Field())] = msg
		}
		return apperrors.NewValidationError(titleFor(validationErrors[0])).
			WithDetails(map[string]interface{}{"fields": fields, "summary": strings.Join(messages, "; ")})
	}
	return apperrors.NewValidationError("Invalid Request").WithCause(err)
}

// formatFieldError formats a single field validation error
func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Field())

	switch e.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "dive":
		return fmt.Sprintf("%s contains invalid values", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// titleFor produces the notification title for the first failing field,
// e.g. "Title Required".
func titleFor(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "notblank", "min":
		return e.Field() + " Required"
	default:
		return "Invalid " + e.Field()
	}
}
