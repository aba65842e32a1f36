package http

import (
	"net/http"

	"settlecli/internal/dataprocessing"
	apierrors "settlecli/internal/errors"
	"settlecli/internal/exporter"
	"settlecli/internal/services"
)

// MapDomainErrors registers the problem responses for the pipeline and
// service sentinels on h.
func MapDomainErrors(h *apierrors.ErrorHandler) *apierrors.ErrorHandler {
	return h.
		Map(services.ErrWorkbookNotFound, apierrors.ErrWorkbookNotFound).
		Map(services.ErrSheetNotFound, apierrors.ErrSheetNotFound).
		Map(services.ErrUnsupportedFile, apierrors.ErrUnsupportedFile).
		Map(services.ErrEmptyUpload, apierrors.New(http.StatusBadRequest, apierrors.CodeInvalidRequest, "Uploaded file is empty")).
		Map(services.ErrUploadTooLarge, apierrors.ErrPayloadTooLarge).
		Map(dataprocessing.ErrUnreadableWorkbook, apierrors.ErrUnreadableWorkbook).
		Map(exporter.ErrMissingExportFields, apierrors.ErrMissingExportFields)
}
