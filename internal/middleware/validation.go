package middleware

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "settlecli/internal/errors"
)

// Validator decodes and validates JSON request bodies using struct tags
type Validator struct {
	validator   *validator.Validate
	logger      *slog.Logger
	maxBodySize int64
}

// NewValidator creates a validator with the settlement field rules registered
func NewValidator(logger *slog.Logger) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterValidation("singleline", isSingleLine)
	v.RegisterValidation("notblank", isNotBlank)

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{
		validator:   v,
		logger:      logger.With(slog.String("component", "validator")),
		maxBodySize: 64 * 1024,
	}
}

// DecodeJSON reads the request body into v and validates it. The returned
// error is an *apierrors.APIError ready for the error handler.
func (m *Validator) DecodeJSON(r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(nil, r.Body, m.maxBodySize)
	if err := render.DecodeJSON(body, v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apierrors.ErrPayloadTooLarge
		}
		if errors.Is(err, io.EOF) {
			return apierrors.New(http.StatusBadRequest, apierrors.CodeInvalidRequest, "Request body is empty")
		}
		m.logger.DebugContext(r.Context(), "invalid JSON body", slog.String("error", err.Error()))
		return apierrors.InvalidRequestWithError(err)
	}
	return m.ValidateStruct(v)
}

// ValidateStruct validates a struct and returns validation errors
func (m *Validator) ValidateStruct(v interface{}) error {
	err := m.validator.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apierrors.InvalidRequestWithError(err)
	}

	validationErrors := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		validationErrors = append(validationErrors, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
		})
	}
	return apierrors.NewValidationErrors(validationErrors)
}

// formatValidationError formats validation error messages
func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, param)
	case "singleline":
		return fmt.Sprintf("%s cannot contain tabs or line breaks", field)
	case "notblank":
		return fmt.Sprintf("%s cannot be blank", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// isSingleLine rejects values that would break a tab-delimited record
func isSingleLine(fl validator.FieldLevel) bool {
	return !strings.ContainsAny(fl.Field().String(), "\t\r\n")
}

// isNotBlank rejects values made only of whitespace
func isNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
