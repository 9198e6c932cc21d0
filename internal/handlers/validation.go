package handlers

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Shared validator instance. The gte/lte tags carry the share-count bounds on
// holding requests; password complexity is checked in the service layer, not
// here, so every policy failure produces one generic message.
var validate = validator.New()

// ValidateRequest validates a request struct and returns the first failure as
// a user-friendly error message.
func ValidateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
			fe := ve[0]
			return fmt.Errorf("validation failed: %s: %s", fe.Field(), formatValidationError(fe))
		}
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// formatValidationError converts a validator FieldError to a user-friendly message
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must have a minimum of %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must have a maximum of %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
