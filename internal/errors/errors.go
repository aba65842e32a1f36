package errors

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError represents validation errors
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeValidationFailed    = "VALIDATION_FAILED"
	CodeNotFound            = "NOT_FOUND"
	CodeWorkbookNotFound    = "WORKBOOK_NOT_FOUND"
	CodeSheetNotFound       = "SHEET_NOT_FOUND"
	CodeUnsupportedFile     = "UNSUPPORTED_FILE"
	CodePayloadTooLarge     = "PAYLOAD_TOO_LARGE"
	CodeUnreadableWorkbook  = "UNREADABLE_WORKBOOK"
	CodeMissingExportFields = "MISSING_EXPORT_FIELDS"
	CodeRateLimitExceeded   = "RATE_LIMIT_EXCEEDED"
	CodeInternalServer      = "INTERNAL_SERVER_ERROR"
)

// Predefined error types for common scenarios
var (
	// 400 Bad Request
	ErrInvalidRequest  = New(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format")
	ErrUnsupportedFile = New(http.StatusBadRequest, CodeUnsupportedFile, "Only .xlsx and .xls workbooks are accepted")

	// 404 Not Found
	ErrNotFound         = New(http.StatusNotFound, CodeNotFound, "Resource not found")
	ErrWorkbookNotFound = New(http.StatusNotFound, CodeWorkbookNotFound, "Workbook not found")
	ErrSheetNotFound    = New(http.StatusNotFound, CodeSheetNotFound, "Sheet not found")

	// 413 Payload Too Large
	ErrPayloadTooLarge = New(http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Upload exceeds the maximum allowed size")

	// 422 Unprocessable Entity
	ErrUnreadableWorkbook  = New(http.StatusUnprocessableEntity, CodeUnreadableWorkbook, "The file could not be read as a spreadsheet")
	ErrMissingExportFields = New(http.StatusUnprocessableEntity, CodeMissingExportFields, "Placement code and denomination are required before exporting")

	// 429 Too Many Requests
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, CodeRateLimitExceeded, "Rate limit exceeded")

	// 500 Internal Server Error
	ErrInternalServer = New(http.StatusInternalServerError, CodeInternalServer, "Internal server error")
)

// InvalidRequestWithError creates an invalid request error with details
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format", err.Error())
}

// ValidationErrors represents multiple validation errors
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// NewValidationErrors creates validation errors from multiple fields
func NewValidationErrors(errors []ValidationError) *APIError {
	return NewWithDetails(
		http.StatusBadRequest,
		CodeValidationFailed,
		"Request validation failed",
		ValidationErrors{Errors: errors},
	)
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   *APIError `json:"error"`
}

// NewErrorResponse creates a new error response
func NewErrorResponse(err *APIError) *ErrorResponse {
	return &ErrorResponse{
		Success: false,
		Error:   err,
	}
}

// WriteError writes an error response without going through chi/render
func WriteError(w http.ResponseWriter, err *APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	json.NewEncoder(w).Encode(NewErrorResponse(err))
}
