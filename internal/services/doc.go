// Package services implements the business logic layer of the settlement
// service. It sits between the HTTP handlers and the parsing pipeline and
// owns the only shared state of the process: the in-memory workbook store.
//
// # Workbooks and sheet contexts
//
// An upload becomes a Workbook holding an ordered list of independent
// SheetContext values. Each context keeps the raw records of its sheet and
// the two export fields the user supplies (placement code and
// denomination). The denomination starts out as the sheet name, and
// ApplyPlacement fills a workbook-wide placement into sheets that have none.
// Aggregations are computed from the records on every read,
// never cached and never updated in place.
//
//	svc, _ := services.NewWorkbookService(cfg.Upload, providers, logger)
//	wb, err := svc.Upload(ctx, "suscripciones.xlsx", data)
//	_, err = svc.UpdateFields(ctx, wb.ID, wb.Sheets[0].ID, "4663", "LECAP")
//	file, err := svc.Export(ctx, wb.ID, wb.Sheets[0].ID)
//
// The store is bounded by Upload.MaxWorkbooks (oldest evicted first) and
// Upload.TTL; expired workbooks disappear on the next access.
//
// # Error Handling
//
// Services return sentinel errors wrapped with context:
//
//   - ErrWorkbookNotFound, ErrSheetNotFound for unknown ids
//   - ErrUnsupportedFile, ErrEmptyUpload, ErrUploadTooLarge for rejected uploads
//   - dataprocessing.ErrUnreadableWorkbook for files that are not spreadsheets
//   - exporter.ErrMissingExportFields when an export lacks its fields
//
// The transport layer maps them to problem responses.
//
// # Observability
//
// Every pipeline run is wrapped in an OpenTelemetry span and counted by the
// instruments in metrics.go.
package services
