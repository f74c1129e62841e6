package validator

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Field errors are reported under the `label` tag when present, falling
	// back to the json name. Labels are what end up in client messages.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if label := f.Tag.Get("label"); label != "" {
			return label
		}
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	// notblank rejects strings made only of whitespace.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		if fl.Field().Kind() != reflect.String {
			return true
		}
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// Validate validates a struct using go-playground/validator tags.
func Validate(s any) error {
	if err := validate.Struct(s); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return &ValidationError{Errors: validationErrors}
		}
		return err
	}
	return nil
}

// ValidationError wraps validator.ValidationErrors. Errors are kept in struct
// field declaration order.
type ValidationError struct {
	Errors validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Field()+" "+msgForTag(err))
	}
	return strings.Join(msgs, "; ")
}

// Fields returns a map of field names to error messages.
func (e *ValidationError) Fields() map[string]string {
	fields := make(map[string]string, len(e.Errors))
	for _, err := range e.Errors {
		fields[err.Field()] = msgForTag(err)
	}
	return fields
}

// First converts the first failing field into an AppError. A failed
// `required` rule becomes a MissingField error so the client sees only the
// earliest missing field, e.g. "Price is required".
func (e *ValidationError) First() *apperrors.AppError {
	if len(e.Errors) == 0 {
		return apperrors.InvalidInput("request validation failed")
	}
	fe := e.Errors[0]
	return FieldError(fe.Field(), msgForTag(fe))
}

// FieldError builds the client error for one field from its message as
// returned by Fields. "is required" becomes a MissingField error.
func FieldError(field, msg string) *apperrors.AppError {
	if msg == msgRequired {
		return apperrors.MissingField(field)
	}
	appErr := apperrors.InvalidInput(field + " " + msg)
	appErr.Kind = apperrors.KindValidation
	appErr.Field = field
	return appErr
}

const msgRequired = "is required"

func msgForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "notblank":
		return "must not be blank"
	case "uuid":
		return "must be a valid UUID"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "dive":
		return "contains an invalid entry"
	default:
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
}
