package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidators registers busadmin-specific validation tags.
func RegisterCustomValidators(v *validator.Validate) error {
	return v.RegisterValidation("auth_scheme", validateAuthScheme)
}

// validateAuthScheme accepts the two schemes the backend understands.
func validateAuthScheme(fl validator.FieldLevel) bool {
	switch strings.ToLower(fl.Field().String()) {
	case "token", "bearer":
		return true
	default:
		return false
	}
}
