package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"settlecli/internal/dataprocessing"
	apierrors "settlecli/internal/errors"
	"settlecli/internal/exporter"
	"settlecli/internal/middleware"
	"settlecli/internal/services"
	"settlecli/pkg/contracts/domain"
)

// MockWorkbookService is a mock implementation of WorkbookServiceInterface
type MockWorkbookService struct {
	mock.Mock
}

func (m *MockWorkbookService) Upload(ctx context.Context, filename string, data []byte) (*services.WorkbookSummary, error) {
	args := m.Called(filename, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.WorkbookSummary), args.Error(1)
}

func (m *MockWorkbookService) Get(ctx context.Context, workbookID string) (*services.WorkbookSummary, error) {
	args := m.Called(workbookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.WorkbookSummary), args.Error(1)
}

func (m *MockWorkbookService) Delete(ctx context.Context, workbookID string) error {
	args := m.Called(workbookID)
	return args.Error(0)
}

func (m *MockWorkbookService) List(ctx context.Context) []services.WorkbookListItem {
	args := m.Called()
	return args.Get(0).([]services.WorkbookListItem)
}

func (m *MockWorkbookService) Sheet(ctx context.Context, workbookID, sheetID string) (*services.SheetDetail, error) {
	args := m.Called(workbookID, sheetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SheetDetail), args.Error(1)
}

func (m *MockWorkbookService) ApplyPlacement(ctx context.Context, workbookID, placement string) (*services.WorkbookSummary, error) {
	args := m.Called(workbookID, placement)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.WorkbookSummary), args.Error(1)
}

func (m *MockWorkbookService) UpdateFields(ctx context.Context, workbookID, sheetID, placement, denomination string) (*services.SheetOverview, error) {
	args := m.Called(workbookID, sheetID, placement, denomination)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SheetOverview), args.Error(1)
}

func (m *MockWorkbookService) Export(ctx context.Context, workbookID, sheetID string) (*services.ExportFile, error) {
	args := m.Called(workbookID, sheetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ExportFile), args.Error(1)
}

func newTestRouter(svc WorkbookServiceInterface, maxBytes int64) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	errorHandler := MapDomainErrors(apierrors.NewErrorHandler(logger, false))
	handler := NewWorkbookHandler(svc, middleware.NewValidator(logger), errorHandler, maxBytes, logger)

	r := chi.NewRouter()
	r.Mount("/api/workbooks", handler.Routes())
	return r
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decodeProblem(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &problem))
	return problem
}

func TestWorkbookHandler_Upload(t *testing.T) {
	summary := &services.WorkbookSummary{
		ID:       "wb-1",
		FileName: "book.xlsx",
		Sheets: []services.SheetOverview{{
			ID:   "sh-1",
			Name: "LECAP",
			Summary: domain.SheetSummary{
				RowCount:              2,
				UniqueIdentifierCount: 1,
				TotalQuantity:         decimal.NewFromInt(1200),
			},
		}},
	}

	tests := []struct {
		name           string
		field          string
		setupMock      func(*MockWorkbookService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:  "successful upload",
			field: "file",
			setupMock: func(m *MockWorkbookService) {
				m.On("Upload", "book.xlsx", []byte("PK-data")).Return(summary, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"total_quantity":"1200"`,
		},
		{
			name:           "missing file field",
			field:          "attachment",
			setupMock:      func(m *MockWorkbookService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"INVALID_REQUEST"`,
		},
		{
			name:  "unreadable workbook",
			field: "file",
			setupMock: func(m *MockWorkbookService) {
				m.On("Upload", "book.xlsx", mock.Anything).
					Return(nil, fmt.Errorf("parse book.xlsx: %w", dataprocessing.ErrUnreadableWorkbook))
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `"UNREADABLE_WORKBOOK"`,
		},
		{
			name:  "unsupported file",
			field: "file",
			setupMock: func(m *MockWorkbookService) {
				m.On("Upload", "book.xlsx", mock.Anything).Return(nil, services.ErrUnsupportedFile)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"UNSUPPORTED_FILE"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockWorkbookService)
			tt.setupMock(mockService)

			body, contentType := multipartBody(t, tt.field, "book.xlsx", []byte("PK-data"))
			req := httptest.NewRequest(http.MethodPost, "/api/workbooks", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()

			newTestRouter(mockService, 1<<20).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}

func TestWorkbookHandler_UploadTooLarge(t *testing.T) {
	mockService := new(MockWorkbookService)

	body, contentType := multipartBody(t, "file", "book.xlsx", bytes.Repeat([]byte("x"), multipartOverhead+64))
	req := httptest.NewRequest(http.MethodPost, "/api/workbooks", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	newTestRouter(mockService, 16).ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, apierrors.CodePayloadTooLarge, decodeProblem(t, w.Body.Bytes())["error_code"])
	mockService.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestWorkbookHandler_GetAndList(t *testing.T) {
	mockService := new(MockWorkbookService)
	mockService.On("List").Return([]services.WorkbookListItem{{ID: "wb-1", FileName: "a.xlsx", SheetCount: 2}})
	mockService.On("Get", "wb-1").Return(&services.WorkbookSummary{ID: "wb-1"}, nil)
	mockService.On("Get", "nope").Return(nil, fmt.Errorf("%w: nope", services.ErrWorkbookNotFound))
	router := newTestRouter(mockService, 1<<20)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/workbooks", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
	assert.Contains(t, w.Body.String(), `"sheet_count":2`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/workbooks/wb-1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"wb-1"`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/workbooks/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	problem := decodeProblem(t, w.Body.Bytes())
	assert.Equal(t, apierrors.CodeWorkbookNotFound, problem["error_code"])
	assert.Contains(t, problem["cause"], "nope")

	mockService.AssertExpectations(t)
}

func TestWorkbookHandler_Delete(t *testing.T) {
	mockService := new(MockWorkbookService)
	mockService.On("Delete", "wb-1").Return(nil)
	mockService.On("Delete", "gone").Return(services.ErrWorkbookNotFound)
	router := newTestRouter(mockService, 1<<20)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/workbooks/wb-1", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/workbooks/gone", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWorkbookHandler_Sheet(t *testing.T) {
	mockService := new(MockWorkbookService)
	mockService.On("Sheet", "wb-1", "sh-1").Return(&services.SheetDetail{
		SheetOverview: services.SheetOverview{ID: "sh-1", Name: "LECAP", IdentifierResolved: true},
		Entries: []domain.AggregatedEntry{
			{Identifier: "201111", Name: "A", Quantity: decimal.NewFromInt(1200)},
		},
	}, nil)
	mockService.On("Sheet", "wb-1", "missing").Return(nil, services.ErrSheetNotFound)
	router := newTestRouter(mockService, 1<<20)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/workbooks/wb-1/sheets/sh-1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"identifier":"201111"`)
	assert.Contains(t, w.Body.String(), `"name":"LECAP"`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/workbooks/wb-1/sheets/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apierrors.CodeSheetNotFound, decodeProblem(t, w.Body.Bytes())["error_code"])
}

func TestWorkbookHandler_UpdateFields(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockWorkbookService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "valid fields",
			body: `{"placement":"4663","denomination":"LECAP"}`,
			setupMock: func(m *MockWorkbookService) {
				m.On("UpdateFields", "wb-1", "sh-1", "4663", "LECAP").
					Return(&services.SheetOverview{ID: "sh-1", Placement: "4663", Denomination: "LECAP"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"denomination":"LECAP"`,
		},
		{
			name:           "missing denomination",
			body:           `{"placement":"4663"}`,
			setupMock:      func(m *MockWorkbookService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"VALIDATION_FAILED"`,
		},
		{
			name:           "tab in placement",
			body:           `{"placement":"46\t63","denomination":"LECAP"}`,
			setupMock:      func(m *MockWorkbookService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `tabs or line breaks`,
		},
		{
			name:           "malformed json",
			body:           `{"placement":`,
			setupMock:      func(m *MockWorkbookService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"INVALID_REQUEST"`,
		},
		{
			name: "unknown sheet",
			body: `{"placement":"4663","denomination":"LECAP"}`,
			setupMock: func(m *MockWorkbookService) {
				m.On("UpdateFields", "wb-1", "sh-1", "4663", "LECAP").Return(nil, services.ErrSheetNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"SHEET_NOT_FOUND"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockWorkbookService)
			tt.setupMock(mockService)

			req := httptest.NewRequest(http.MethodPut, "/api/workbooks/wb-1/sheets/sh-1/fields", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			newTestRouter(mockService, 1<<20).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}

func TestWorkbookHandler_ApplyPlacement(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockWorkbookService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "valid placement",
			body: `{"placement":"4663"}`,
			setupMock: func(m *MockWorkbookService) {
				m.On("ApplyPlacement", "wb-1", "4663").Return(&services.WorkbookSummary{
					ID:     "wb-1",
					Sheets: []services.SheetOverview{{ID: "sh-1", Placement: "4663", Denomination: "LECAP"}},
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"placement":"4663"`,
		},
		{
			name:           "blank placement",
			body:           `{"placement":"   "}`,
			setupMock:      func(m *MockWorkbookService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"VALIDATION_FAILED"`,
		},
		{
			name: "unknown workbook",
			body: `{"placement":"4663"}`,
			setupMock: func(m *MockWorkbookService) {
				m.On("ApplyPlacement", "wb-1", "4663").Return(nil, services.ErrWorkbookNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"WORKBOOK_NOT_FOUND"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockWorkbookService)
			tt.setupMock(mockService)

			req := httptest.NewRequest(http.MethodPut, "/api/workbooks/wb-1/placement", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			newTestRouter(mockService, 1<<20).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}

func TestWorkbookHandler_Export(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(*MockWorkbookService)
		expectedStatus int
		check          func(t *testing.T, w *httptest.ResponseRecorder)
	}{
		{
			name: "successful export",
			setupMock: func(m *MockWorkbookService) {
				m.On("Export", "wb-1", "sh-1").Return(&services.ExportFile{
					Name:    "LECAP.txt",
					Content: "4663\tLECAP\t1200\t201111\tA\t200\tPersona Humana\tCUIT",
				}, nil)
			},
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
				assert.Equal(t, `attachment; filename=LECAP.txt`, w.Header().Get("Content-Disposition"))
				assert.Equal(t, "4663\tLECAP\t1200\t201111\tA\t200\tPersona Humana\tCUIT", w.Body.String())
			},
		},
		{
			name: "fields not set",
			setupMock: func(m *MockWorkbookService) {
				m.On("Export", "wb-1", "sh-1").
					Return(nil, fmt.Errorf("export sheet LECAP: %w", exporter.ErrMissingExportFields))
			},
			expectedStatus: http.StatusUnprocessableEntity,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				problem := decodeProblem(t, w.Body.Bytes())
				assert.Equal(t, apierrors.CodeMissingExportFields, problem["error_code"])
				assert.Contains(t, problem, "trace_id")
			},
		},
		{
			name: "unexpected failure",
			setupMock: func(m *MockWorkbookService) {
				m.On("Export", "wb-1", "sh-1").Return(nil, errors.New("boom"))
			},
			expectedStatus: http.StatusInternalServerError,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.Contains(t, w.Body.String(), "Internal Server Error")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockWorkbookService)
			tt.setupMock(mockService)

			w := httptest.NewRecorder()
			newTestRouter(mockService, 1<<20).ServeHTTP(w,
				httptest.NewRequest(http.MethodGet, "/api/workbooks/wb-1/sheets/sh-1/export", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			tt.check(t, w)
			mockService.AssertExpectations(t)
		})
	}
}
