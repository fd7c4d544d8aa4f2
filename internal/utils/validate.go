package utils

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// Validate is the shared struct validator. Field names in errors are taken
// from the json tag. It knows the "username" and "slug" rules.
var Validate = NewValidator()

// NewValidator returns a validator with the custom rules registered.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	if err := RegisterRules(v); err != nil {
		panic(err)
	}
	return v
}

// RegisterRules adds the "username" and "slug" rules to v. It is also used
// to teach gin's binding engine the same rules.
func RegisterRules(v *validator.Validate) error {
	if err := v.RegisterValidation("username", validUsername); err != nil {
		return err
	}
	return v.RegisterValidation("slug", validSlug)
}

// validUsername accepts Unicode letters and digits plus @.+-_ and rejects
// the reserved "me" handle.
func validUsername(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return usernamePattern.MatchString(s) && !strings.EqualFold(s, "me")
}

func validSlug(fl validator.FieldLevel) bool {
	return slugPattern.MatchString(fl.Field().String())
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// FirstFieldError returns the field name and a human readable message for
// the first failure in err, or ok=false when err is not a validation error.
func FirstFieldError(err error) (field, message string, ok bool) {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return "", "", false
	}
	fe := ves[0]
	return fe.Field(), FieldMessage(fe), true
}

// FieldMessage renders one validation failure.
func FieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		return "Ensure this field has no more than " + fe.Param() + " characters."
	case "min":
		return "Ensure this field has at least " + fe.Param() + " characters."
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters; \"me\" is reserved."
	case "slug":
		return "Enter a valid slug consisting of letters, numbers, underscores or hyphens."
	default:
		return "Invalid value."
	}
}
