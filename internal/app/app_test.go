package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"settlecli/internal/config"
	"settlecli/internal/middleware"
	"settlecli/internal/shared/testutil"
)

func newTestApp(t *testing.T, mutate func(*config.Config)) *Application {
	t.Helper()
	cfg := config.Default()
	cfg.Telemetry.TraceExporter = config.TraceExporterNone
	if mutate != nil {
		mutate(cfg)
	}

	application, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = application.OTelProviders.Shutdown(context.Background())
	})
	return application
}

func holdersXLSX(t *testing.T) []byte {
	return testutil.WorkbookBytes(t, testutil.Sheet("LECAP",
		[]interface{}{"Listado de suscriptores"},
		[]interface{}{"CUIT", "Nombre", "Nominales"},
		[]interface{}{"20-111-1", "A", "1.000,00"},
		[]interface{}{"20-111-1", nil, 200},
	))
}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/workbooks", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func TestApplication_UploadToExport(t *testing.T) {
	application := newTestApp(t, nil)
	router := application.Router

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "suscripciones.xlsx", holdersXLSX(t)))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var wb struct {
		ID     string `json:"id"`
		Sheets []struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Summary struct {
				RowCount int    `json:"row_count"`
				Total    string `json:"total_quantity"`
			} `json:"summary"`
		} `json:"sheets"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &wb))
	require.Len(t, wb.Sheets, 1)
	assert.Equal(t, "LECAP", wb.Sheets[0].Name)
	assert.Equal(t, 2, wb.Sheets[0].Summary.RowCount)
	assert.Equal(t, "1200", wb.Sheets[0].Summary.Total)

	sheetURL := "/api/workbooks/" + wb.ID + "/sheets/" + wb.Sheets[0].ID

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, sheetURL+"/export", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "MISSING_EXPORT_FIELDS")

	req := httptest.NewRequest(http.MethodPut, sheetURL+"/fields",
		strings.NewReader(`{"placement":"4663","denomination":"LECAP"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, sheetURL+"/export", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "4663\tLECAP\t1200\t201111\tA\t200\tPersona Humana\tCUIT", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "LECAP.txt")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "settle_workbooks_parsed_total")
	assert.Contains(t, w.Body.String(), "settle_exports_total")
}

func TestApplication_Errors(t *testing.T) {
	application := newTestApp(t, nil)
	router := application.Router

	tests := []struct {
		name           string
		request        *http.Request
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "unreadable workbook",
			request:        uploadRequest(t, "book.xlsx", []byte("this is not a spreadsheet")),
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "UNREADABLE_WORKBOOK",
		},
		{
			name:           "unsupported extension",
			request:        uploadRequest(t, "book.csv", []byte("CUIT;Nominales")),
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "UNSUPPORTED_FILE",
		},
		{
			name:           "unknown workbook",
			request:        httptest.NewRequest(http.MethodGet, "/api/workbooks/missing", nil),
			expectedStatus: http.StatusNotFound,
			expectedBody:   "WORKBOOK_NOT_FOUND",
		},
		{
			name:           "unknown route",
			request:        httptest.NewRequest(http.MethodGet, "/api/nope", nil),
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, tt.request)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
		})
	}
}

func TestApplication_HealthAndRateLimit(t *testing.T) {
	application := newTestApp(t, func(cfg *config.Config) {
		cfg.Security.RateLimit.RPS = 1
		cfg.Security.RateLimit.Burst = 2
	})
	router := application.Router

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
		statuses = append(statuses, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)
}

func TestApplication_MetricsDisabled(t *testing.T) {
	application := newTestApp(t, func(cfg *config.Config) {
		cfg.Telemetry.MetricsEnabled = false
	})

	w := httptest.NewRecorder()
	application.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
