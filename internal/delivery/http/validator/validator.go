// Package validator adapts go-playground/validator to echo's Validator interface.
package validator

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// requestValidator wraps a validator instance for echo.
type requestValidator struct {
	validate *validator.Validate
}

// New creates the echo request validator.
func New() echo.Validator {
	return &requestValidator{validate: validator.New()}
}

// Validate implements echo.Validator. Struct tag violations surface as 400s.
func (v *requestValidator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return nil
}
