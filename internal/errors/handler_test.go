package errors

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"settlecli/internal/infrastructure"
)

var errSentinel = stderrors.New("unreadable workbook")

func newTestHandler(t *testing.T, includeStack bool) (*ErrorHandler, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	return NewErrorHandler(logger, includeStack), &buf
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantCode   string
	}{
		{
			name:       "api error",
			err:        ErrSheetNotFound,
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
			wantCode:   CodeSheetNotFound,
		},
		{
			name:       "wrapped api error",
			err:        fmt.Errorf("lookup: %w", ErrUnsupportedFile),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeUnsupportedFile,
			wantCode:   CodeUnsupportedFile,
		},
		{
			name:       "mapped sentinel",
			err:        fmt.Errorf("parse upload: %w", errSentinel),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeUnreadableWorkbook,
			wantCode:   CodeUnreadableWorkbook,
		},
		{
			name:       "body too large",
			err:        &http.MaxBytesError{Limit: 10},
			wantStatus: http.StatusRequestEntityTooLarge,
			wantType:   TypePayloadTooLarge,
			wantCode:   CodePayloadTooLarge,
		},
		{
			name:       "app validation error",
			err:        NewAppValidationError("bad extension", nil),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantCode:   string(ErrTypeValidation),
		},
		{
			name:       "deadline",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "unknown error",
			err:        stderrors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _ := newTestHandler(t, false)
			handler.Map(errSentinel, ErrUnreadableWorkbook)

			req := httptest.NewRequest(http.MethodGet, "/api/workbooks/x", nil)
			req = req.WithContext(infrastructure.WithTraceID(req.Context(), "trace-1"))
			rec := httptest.NewRecorder()

			handler.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeProblem(t, rec)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "/api/workbooks/x", body["instance"])
			assert.Equal(t, "trace-1", body["trace_id"])
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body["error_code"])
			}
			assert.NotContains(t, body, "stack")
		})
	}
}

func TestErrorHandler_HandleError_Nil(t *testing.T) {
	handler, logs := newTestHandler(t, false)
	rec := httptest.NewRecorder()

	handler.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Equal(t, 0, rec.Body.Len())
	assert.Equal(t, 0, logs.Len())
}

func TestErrorHandler_StackOnlyForServerErrors(t *testing.T) {
	handler, _ := newTestHandler(t, true)

	rec := httptest.NewRecorder()
	handler.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), stderrors.New("boom"))
	assert.Contains(t, decodeProblem(t, rec), "stack")

	rec = httptest.NewRecorder()
	handler.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), ErrWorkbookNotFound)
	assert.NotContains(t, decodeProblem(t, rec), "stack")
}

func TestErrorHandler_ValidationDetails(t *testing.T) {
	handler, _ := newTestHandler(t, false)
	rec := httptest.NewRecorder()

	err := NewValidationErrors([]ValidationError{{Field: "placement", Message: "placement is required"}})
	handler.HandleError(rec, httptest.NewRequest(http.MethodPut, "/fields", nil), err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeProblem(t, rec)
	details := body["details"].(map[string]interface{})
	errs := details["errors"].([]interface{})
	require.Len(t, errs, 1)
	assert.Equal(t, "placement", errs[0].(map[string]interface{})["field"])
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	handler, _ := newTestHandler(t, false)

	rec := httptest.NewRecorder()
	handler.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	handler.MethodNotAllowed(rec, httptest.NewRequest(http.MethodPatch, "/api/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, decodeProblem(t, rec)["detail"], "PATCH")
}
