package helper

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"waterworks_backend/internals/helpers/apperr"
)

// NewValidator reports field errors under their json names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// ValidationFieldErrors turns validator output into the field map used by
// JsonValidationError. Non-validator errors come back under "_".
func ValidationFieldErrors(err error) map[string][]string {
	out := map[string][]string{}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		out["_"] = []string{err.Error()}
		return out
	}
	for _, fe := range ve {
		out[fe.Field()] = append(out[fe.Field()], fieldMessage(fe))
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	label := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", label)
	case "uuid", "uuid4":
		return fmt.Sprintf("The %s must be a valid UUID.", label)
	case "max":
		return fmt.Sprintf("The %s may not be greater than %s characters.", label, fe.Param())
	case "min":
		return fmt.Sprintf("The %s must be at least %s characters.", label, fe.Param())
	case "gte":
		return fmt.Sprintf("The %s must be at least %s.", label, fe.Param())
	case "gt":
		return fmt.Sprintf("The %s must be greater than %s.", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", label)
	case "url":
		return fmt.Sprintf("The %s format is invalid.", label)
	case "datetime":
		return fmt.Sprintf("The %s does not match the format %s.", label, fe.Param())
	default:
		return fmt.Sprintf("The %s is invalid.", label)
	}
}

// BindAndValidate parses the JSON body into out and runs struct validation.
// Bad JSON is a 400; rule violations come back as an apperr validation error.
func BindAndValidate(c *fiber.Ctx, v *validator.Validate, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json: "+err.Error())
	}
	if err := v.Struct(out); err != nil {
		return apperr.Validation("The given data was invalid.", ValidationFieldErrors(err))
	}
	return nil
}
