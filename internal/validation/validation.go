// Package validation checks request structs with go-playground/validator and
// reports the first failing field as a *domain.ValidationError.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/redmonkez12/matcha/internal/domain"
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{2,29}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names so clients can attach errors to inputs.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("email_address", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})

	return v
}

// Struct validates s. Inputs are expected to be trimmed by the caller.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("failed to validate input: %w", err)
	}

	fe := fieldErrs[0]
	return domain.NewValidationError(fe.Field(), message(fe))
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "email_address":
		return "invalid email address"
	case "username":
		return "username must be 3-30 characters of letters, digits, '.', '_' or '-'"
	default:
		return fe.Field() + " is invalid"
	}
}

// Password enforces the password policy and names the first rule broken.
func Password(field, pw string) error {
	if len(pw) < 8 {
		return domain.NewValidationError(field, "password must be at least 8 characters")
	}

	var upper, lower, digit, symbol bool
	for _, r := range pw {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			symbol = true
		}
	}

	switch {
	case !upper:
		return domain.NewValidationError(field, "password must contain at least 1 uppercase letter (A-Z)")
	case !lower:
		return domain.NewValidationError(field, "password must contain at least 1 lowercase letter (a-z)")
	case !digit:
		return domain.NewValidationError(field, "password must contain at least 1 number (0-9)")
	case !symbol:
		return domain.NewValidationError(field, "password must contain at least 1 special character")
	}

	return nil
}
