// Package http implements the HTTP handlers of the settlement service.
// Handlers stay thin: they decode requests, call the workbook service and
// render JSON with go-chi/render. Failures go through the shared
// apierrors.ErrorHandler, which answers with RFC 7807 problem documents.
//
// # Routes
//
//	POST   /api/workbooks                                      multipart upload, field "file"
//	GET    /api/workbooks                                      list uploads
//	GET    /api/workbooks/{workbookID}                         sheets with summaries
//	DELETE /api/workbooks/{workbookID}                         discard an upload
//	GET    /api/workbooks/{workbookID}/sheets/{sheetID}        entries, summary, fields
//	PUT    /api/workbooks/{workbookID}/sheets/{sheetID}/fields placement and denomination
//	GET    /api/workbooks/{workbookID}/sheets/{sheetID}/export text/plain settlement file
//
// # Error Handling
//
// MapDomainErrors registers the status codes of the pipeline sentinels:
// unreadable workbooks and missing export fields are 422, unknown ids are
// 404, rejected uploads are 400 or 413.
package http
