// Package validator adapts go-playground/validator to echo.
package validator

import (
	domainerrors "ownerauth/internal/domain/errors"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// FieldError describes one rejected request field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// requestValidator implements echo.Validator.
type requestValidator struct {
	validate *validator.Validate
}

// New creates the echo validator used by all handlers.
func New() echo.Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)

	return &requestValidator{validate: v}
}

// Validate returns a VALIDATION_FAILED error listing every rejected field.
func (v *requestValidator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Wrap(err, "failed to validate request")
	}

	details := make([]FieldError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}

	return errors.WithStack(domainerrors.ErrValidation.WithDetails(details))
}
