package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "settlecli/internal/errors"
	"settlecli/internal/middleware"
	api "settlecli/pkg/contracts/api/v1"
)

// multipartOverhead is the allowance for multipart framing on top of the file size
const multipartOverhead = 1 << 20

// WorkbookHandler handles workbook uploads, sheet summaries and exports
type WorkbookHandler struct {
	service      WorkbookServiceInterface
	validator    *middleware.Validator
	errorHandler *apierrors.ErrorHandler
	maxBytes     int64
	logger       *slog.Logger
}

// NewWorkbookHandler creates a new workbook handler
func NewWorkbookHandler(service WorkbookServiceInterface, validator *middleware.Validator, errorHandler *apierrors.ErrorHandler, maxBytes int64, logger *slog.Logger) *WorkbookHandler {
	return &WorkbookHandler{
		service:      service,
		validator:    validator,
		errorHandler: errorHandler,
		maxBytes:     maxBytes,
		logger:       logger.With(slog.String("component", "workbook_handler")),
	}
}

// Routes returns the workbook routes
func (h *WorkbookHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Upload)
	r.Get("/", h.List)

	r.Route("/{workbookID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Delete)
		r.Put("/placement", h.ApplyPlacement)

		r.Route("/sheets/{sheetID}", func(r chi.Router) {
			r.Get("/", h.Sheet)
			r.Put("/fields", h.UpdateFields)
			r.Get("/export", h.Export)
		})
	})

	return r
}

// Upload handles POST /api/workbooks
func (h *WorkbookHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusBadRequest, apierrors.CodeInvalidRequest,
				"A workbook must be sent in the multipart field \"file\"", "file"))
			return
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer file.Close()

	reader := io.Reader(file)
	if h.maxBytes > 0 {
		reader = io.LimitReader(file, h.maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		h.errorHandler.HandleError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	h.logger.InfoContext(r.Context(), "Workbook received",
		slog.String("file_name", header.Filename),
		slog.Int("size", len(data)))

	wb, err := h.service.Upload(r.Context(), header.Filename, data)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, api.Success(wb))
}

// List handles GET /api/workbooks
func (h *WorkbookHandler) List(w http.ResponseWriter, r *http.Request) {
	items := h.service.List(r.Context())
	render.JSON(w, r, api.SuccessList(items, len(items)))
}

// Get handles GET /api/workbooks/{workbookID}
func (h *WorkbookHandler) Get(w http.ResponseWriter, r *http.Request) {
	wb, err := h.service.Get(r.Context(), chi.URLParam(r, "workbookID"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.Success(wb))
}

// Delete handles DELETE /api/workbooks/{workbookID}
func (h *WorkbookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "workbookID")); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApplyPlacement handles PUT /api/workbooks/{workbookID}/placement
func (h *WorkbookHandler) ApplyPlacement(w http.ResponseWriter, r *http.Request) {
	var req api.PlacementRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	wb, err := h.service.ApplyPlacement(r.Context(), chi.URLParam(r, "workbookID"), req.Placement)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.Success(wb))
}

// Sheet handles GET /api/workbooks/{workbookID}/sheets/{sheetID}
func (h *WorkbookHandler) Sheet(w http.ResponseWriter, r *http.Request) {
	sheet, err := h.service.Sheet(r.Context(), chi.URLParam(r, "workbookID"), chi.URLParam(r, "sheetID"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.Success(sheet))
}

// UpdateFields handles PUT /api/workbooks/{workbookID}/sheets/{sheetID}/fields
func (h *WorkbookHandler) UpdateFields(w http.ResponseWriter, r *http.Request) {
	var req api.FieldsRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	sheet, err := h.service.UpdateFields(r.Context(),
		chi.URLParam(r, "workbookID"), chi.URLParam(r, "sheetID"),
		req.Placement, req.Denomination)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.Success(sheet))
}

// Export handles GET /api/workbooks/{workbookID}/sheets/{sheetID}/export
func (h *WorkbookHandler) Export(w http.ResponseWriter, r *http.Request) {
	file, err := h.service.Export(r.Context(), chi.URLParam(r, "workbookID"), chi.URLParam(r, "sheetID"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, file.Content); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to write export",
			slog.String("file_name", file.Name),
			slog.String("error", err.Error()))
	}
}
