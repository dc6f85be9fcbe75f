package validation

import (
	stderrors "errors"
	"reflect"
	"regexp"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"

	apperrors "cumbre/internal/errors"
)

var (
	simpleEmailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	cardExpiryRegex  = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
)

// New returns a validator that reports fields by their json name and knows the
// storefront's custom tags: simple_email and card_expiry (MM/YY).
func New() *validatorv10.Validate {
	v := validatorv10.New(validatorv10.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	v.RegisterValidation("simple_email", func(fl validatorv10.FieldLevel) bool {
		return simpleEmailRegex.MatchString(fl.Field().String())
	})
	v.RegisterValidation("card_expiry", func(fl validatorv10.FieldLevel) bool {
		return cardExpiryRegex.MatchString(fl.Field().String())
	})

	return v
}

// Struct validates s and converts failures into a *errors.ValidationError
// whose details are keyed by json field name. Messages come from messages
// (field -> tag -> text) and fall back to a generic one.
func Struct(v *validatorv10.Validate, s interface{}, messages map[string]map[string]string) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validatorv10.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return apperrors.NewInternalError("validating input", err)
	}

	details := make([]apperrors.ValidationDetail, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, apperrors.ValidationDetail{
			Field:   fe.Field(),
			Message: messageFor(fe, messages),
		})
	}
	return apperrors.NewValidationError("validation failed", details...)
}

func messageFor(fe validatorv10.FieldError, messages map[string]map[string]string) string {
	if byTag, ok := messages[fe.Field()]; ok {
		if msg, ok := byTag[fe.Tag()]; ok {
			return msg
		}
		if msg, ok := byTag["*"]; ok {
			return msg
		}
	}
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "simple_email", "email":
		return fe.Field() + " must be a valid email address"
	default:
		return fe.Field() + " is invalid"
	}
}
