package services

import (
	"errors"

	"settlecli/internal/validation"
)

// Workbook service errors
var (
	ErrWorkbookNotFound = errors.New("workbook not found")
	ErrSheetNotFound    = errors.New("sheet not found")

	// Upload errors
	ErrEmptyUpload     = errors.New("uploaded file is empty")
	ErrUploadTooLarge  = errors.New("uploaded file exceeds the size limit")
	ErrUnsupportedFile = validation.ErrUnsupportedFile
)
