package handler

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// RequestValidator adapts go-playground/validator to Echo's
// c.Validate hook.
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator builds the validator used for all request DTOs.
func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate implements echo.Validator.
func (v *RequestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// bindAndValidate binds the JSON body into dst and validates it,
// writing the error response itself. It returns false when a response
// has already been sent.
func bindAndValidate(c echo.Context, dst interface{}) bool {
	if err := c.Bind(dst); err != nil {
		_ = respondError(c, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := c.Validate(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = "failed validation on '" + fe.Tag() + "'"
			}
			_ = respondValidation(c, fields)
			return false
		}
		_ = respondError(c, http.StatusBadRequest, "invalid request")
		return false
	}
	return true
}
