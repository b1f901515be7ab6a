// Package validation checks candidate account records before they are persisted.
package validation

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/pkg/errors"

	"github.com/eaglebank/account-registry/shared/apperr"
	"github.com/eaglebank/account-registry/shared/models"
)

const emailTag = "accountemail"

// emailPattern accepts dot-separated atoms in the local part and a dotted
// domain ending in at least two letters.
var emailPattern = regexp.MustCompile(
	"(?i)^[a-z0-9!#$%&'*+/=?^_`{|}~-]+(\\.[a-z0-9!#$%&'*+/=?^_`{|}~-]+)*" +
		"@([a-z0-9]([a-z0-9-]*[a-z0-9])?\\.)+[a-z]{2,}$")

var validate = newValidator()

type candidate struct {
	FirstName    string `json:"firstName" validate:"required,notblank,min=2,max=100"`
	LastName     string `json:"lastName" validate:"required,notblank,min=2,max=100"`
	EmailAddress string `json:"emailAddress" validate:"required,notblank,min=4,max=100,accountemail"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation(emailTag, func(fl validator.FieldLevel) bool {
		return IsEmail(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// IsEmail reports whether s has valid email syntax. Length bounds are not checked.
func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Validate returns the field violations of account, nil when it is valid.
func Validate(account *models.Account) []apperr.Violation {
	err := validate.Struct(candidate{
		FirstName:    account.FirstName,
		LastName:     account.LastName,
		EmailAddress: account.EmailAddress,
	})
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return []apperr.Violation{{Field: "", Message: err.Error(), Type: "invalid"}}
	}

	violations := make([]apperr.Violation, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		violations = append(violations, apperr.Violation{
			Field:   fe.Field(),
			Message: message(fe),
			Type:    fe.Tag(),
		})
	}
	return violations
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "The " + fe.Field() + " field is required"
	case "min":
		return "The " + fe.Field() + " field must be at least " + fe.Param() + " characters long"
	case "max":
		return "The " + fe.Field() + " field must be at most " + fe.Param() + " characters long"
	case emailTag:
		return "The " + fe.Field() + " field is not a valid email address"
	default:
		return "The " + fe.Field() + " field is invalid"
	}
}
