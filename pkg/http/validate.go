package http

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// ValidationError describes one rejected request field.
type ValidationError struct {
	Code    string            `json:"code"`
	Field   string            `json:"field,omitempty"`
	Message string            `json:"message"`
	Params  map[string]string `json:"params,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// ReadAndValidateRequest binds the request body into req, applies defaults
// and validates.
func ReadAndValidateRequest(c echo.Context, req interface{}) []ValidationError {
	if err := c.Bind(req); err != nil {
		return toValidationErrors(err)
	}
	return PrepareRequest(c.Request().Context(), req)
}

// PrepareRequest applies struct defaults and validation to an already decoded
// request.
func PrepareRequest(ctx context.Context, req interface{}) []ValidationError {
	if err := defaults.Set(req); err != nil {
		return toValidationErrors(err)
	}
	if err := validate.StructCtx(ctx, req); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

// message formats by validation tag: field name first, then the tag param.
var messages = map[string]string{
	"required": "%s is required",
	"datetime": "%s must be a date formatted as %s",
	"max":      "%s must be at most %s",
	"gte":      "%s must be at least %s",
	"lte":      "%s must be at most %s",
}

func toValidationErrors(err error) []ValidationError {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		out := make([]ValidationError, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			out = append(out, fieldError(fe))
		}
		return out
	}

	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg = fmt.Sprint(he.Message)
	}
	return []ValidationError{{Code: "ERR_MALFORMED", Message: msg}}
}

func fieldError(fe validator.FieldError) ValidationError {
	ve := ValidationError{
		Code:  "ERR_" + strings.ToUpper(fe.Tag()),
		Field: fe.Field(),
	}
	if format, ok := messages[fe.Tag()]; ok {
		if strings.Count(format, "%s") == 2 {
			ve.Message = fmt.Sprintf(format, fe.Field(), fe.Param())
		} else {
			ve.Message = fmt.Sprintf(format, fe.Field())
		}
	} else {
		ve.Message = fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
	if p := fe.Param(); p != "" {
		ve.Params = map[string]string{fe.Tag(): p}
	}
	return ve
}
