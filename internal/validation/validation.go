// Package validation wraps go-playground/validator with the chat rules and
// converts failures into apperr.Validation errors.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/matheus3301/chatrise/internal/apperr"
)

var (
	emailRegexp    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	usernameRegexp = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,32}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("chatemail", func(fl validator.FieldLevel) bool {
		return emailRegexp.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRegexp.MatchString(fl.Field().String())
	})
	return v
}

// Struct validates s and returns an apperr.Validation error naming the first
// failing field.
func Struct(op string, s any) error {
	if err := validate.Struct(s); err != nil {
		return convert(op, err)
	}
	return nil
}

// Var validates a single value against tag, reporting failures as field.
func Var(op, field string, value any, tag string) error {
	if err := validate.Var(value, tag); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperr.New(apperr.Validation, op, field+": "+describe(verrs[0]))
		}
		return apperr.New(apperr.Validation, op, err.Error())
	}
	return nil
}

// Email reports whether s has the shape of an email address.
func Email(s string) bool {
	return emailRegexp.MatchString(s)
}

func convert(op string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.New(apperr.Validation, op, err.Error())
	}
	fe := verrs[0]
	return apperr.New(apperr.Validation, op, strings.ToLower(fe.Field())+": "+describe(fe))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "chatemail":
		return "must be a valid email address"
	case "username":
		return "must be 3-32 letters, digits, '.', '_' or '-'"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "nefield":
		return "must differ from " + strings.ToLower(fe.Param())
	}
	return "is invalid (" + fe.Tag() + ")"
}
