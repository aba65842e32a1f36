package http

import (
	"context"

	"settlecli/internal/services"
)

// WorkbookServiceInterface defines the workbook operations the handlers need
type WorkbookServiceInterface interface {
	Upload(ctx context.Context, filename string, data []byte) (*services.WorkbookSummary, error)
	Get(ctx context.Context, workbookID string) (*services.WorkbookSummary, error)
	Delete(ctx context.Context, workbookID string) error
	List(ctx context.Context) []services.WorkbookListItem
	Sheet(ctx context.Context, workbookID, sheetID string) (*services.SheetDetail, error)
	ApplyPlacement(ctx context.Context, workbookID, placement string) (*services.WorkbookSummary, error)
	UpdateFields(ctx context.Context, workbookID, sheetID, placement, denomination string) (*services.SheetOverview, error)
	Export(ctx context.Context, workbookID, sheetID string) (*services.ExportFile, error)
}
