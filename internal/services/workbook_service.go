package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"settlecli/internal/config"
	"settlecli/internal/dataprocessing"
	apperrors "settlecli/internal/errors"
	"settlecli/internal/exporter"
	"settlecli/internal/infrastructure"
	"settlecli/internal/validation"
	"settlecli/pkg/contracts/domain"
)

// SheetOverview is a sheet context together with its current summary
type SheetOverview struct {
	ID                 string              `json:"id"`
	Name               string              `json:"name"`
	Placement          string              `json:"placement"`
	Denomination       string              `json:"denomination"`
	Fields             domain.FieldKeys    `json:"fields"`
	IdentifierResolved bool                `json:"identifier_resolved"`
	Summary            domain.SheetSummary `json:"summary"`
}

// SheetDetail adds the aggregated entries to a sheet overview
type SheetDetail struct {
	SheetOverview
	Entries []domain.AggregatedEntry `json:"entries"`
}

// WorkbookSummary describes an upload and all of its sheets
type WorkbookSummary struct {
	ID            string          `json:"id"`
	FileName      string          `json:"file_name"`
	UploadedAt    time.Time       `json:"uploaded_at"`
	EmptyWorkbook bool            `json:"empty_workbook"`
	Sheets        []SheetOverview `json:"sheets"`
}

// WorkbookListItem is the short form used when listing uploads
type WorkbookListItem struct {
	ID         string    `json:"id"`
	FileName   string    `json:"file_name"`
	UploadedAt time.Time `json:"uploaded_at"`
	SheetCount int       `json:"sheet_count"`
}

// ExportFile is a rendered settlement file
type ExportFile struct {
	Name    string
	Content string
}

// WorkbookService keeps uploaded workbooks in memory and runs the
// aggregation pipeline over their sheets on demand.
type WorkbookService struct {
	store     *workbookStore
	maxBytes  int64
	validator *validation.FileValidator
	tracer    trace.Tracer
	metrics   *pipelineMetrics
	logger    *slog.Logger
}

// NewWorkbookService creates the service. A nil providers value falls back
// to the global OpenTelemetry tracer and meter.
func NewWorkbookService(cfg config.UploadConfig, providers *infrastructure.OTelProviders, logger *slog.Logger) (*WorkbookService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = infrastructure.WithComponent(logger, "workbook_service")

	var (
		tracer trace.Tracer
		meter  metric.Meter
	)
	if providers != nil {
		tracer, meter = providers.Tracer, providers.Meter
	}
	if tracer == nil {
		tracer = otel.Tracer(infrastructure.InstrumentationName)
	}
	if meter == nil {
		meter = otel.Meter(infrastructure.InstrumentationName)
	}

	metrics, err := newPipelineMetrics(meter)
	if err != nil {
		return nil, err
	}

	logger.Info("WorkbookService initialized",
		slog.Int64("max_bytes", cfg.MaxBytes),
		slog.Int("max_workbooks", cfg.MaxWorkbooks),
		slog.Duration("ttl", cfg.TTL))

	return &WorkbookService{
		store:     newWorkbookStore(cfg.MaxWorkbooks, cfg.TTL),
		maxBytes:  cfg.MaxBytes,
		validator: validation.NewFileValidator(logger),
		tracer:    tracer,
		metrics:   metrics,
		logger:    logger,
	}, nil
}

// Upload parses a workbook and stores it under a fresh id. A readable file
// without usable sheets is still stored and reported as EmptyWorkbook.
func (s *WorkbookService) Upload(ctx context.Context, filename string, data []byte) (*WorkbookSummary, error) {
	ctx, span := s.tracer.Start(ctx, "workbook.upload",
		trace.WithAttributes(
			attribute.String("workbook.file_name", filename),
			attribute.Int("workbook.size_bytes", len(data)),
		))
	defer span.End()

	if err := s.checkUpload(filename, data); err != nil {
		s.metrics.recordFailed(ctx, "rejected")
		span.SetStatus(codes.Error, err.Error())
		s.logger.WarnContext(ctx, "Upload rejected",
			slog.String("file_name", filename),
			slog.String("error", err.Error()))
		return nil, err
	}

	start := time.Now()
	sheets, err := dataprocessing.ParseWorkbook(data)
	if err != nil {
		s.metrics.recordFailed(ctx, "unreadable")
		infrastructure.RecordError(ctx, err)
		infrastructure.WithError(s.logger, err).WarnContext(ctx, "Workbook could not be parsed",
			slog.String("file_name", filename))
		return nil, apperrors.NewParsingError("parse "+filepath.Base(filename), err).
			WithContext("file", filepath.Base(filename))
	}

	wb := &Workbook{
		ID:         uuid.NewString(),
		FileName:   filepath.Base(filename),
		UploadedAt: time.Now().UTC(),
		Sheets:     make([]SheetContext, 0, len(sheets)),
	}

	rows := 0
	for _, sh := range sheets {
		wb.Sheets = append(wb.Sheets, SheetContext{
			ID:           uuid.NewString(),
			Name:         sh.Name,
			Denomination: sh.Name,
			Records:      sh.Records,
		})
		rows += len(sh.Records)
	}

	summary := s.summarize(ctx, wb)
	unresolved := 0
	for _, sh := range summary.Sheets {
		if !sh.IdentifierResolved {
			unresolved++
		}
	}
	s.metrics.recordParsed(ctx, formatOf(filename), len(sheets), rows, unresolved, time.Since(start).Seconds())

	for _, id := range s.store.put(wb) {
		s.logger.InfoContext(ctx, "Workbook evicted", slog.String("workbook_id", id))
	}

	span.SetAttributes(
		attribute.String("workbook.id", wb.ID),
		attribute.Int("workbook.sheets", len(wb.Sheets)),
		attribute.Int("workbook.rows", rows),
	)
	if summary.EmptyWorkbook {
		infrastructure.AddSpanEvent(ctx, "workbook.empty")
		s.logger.WarnContext(ctx, "Workbook has no usable sheets",
			slog.String("workbook_id", wb.ID),
			slog.String("file_name", wb.FileName))
	}
	s.logger.InfoContext(ctx, "Workbook uploaded",
		slog.String("workbook_id", wb.ID),
		slog.String("file_name", wb.FileName),
		slog.Int("sheets", len(wb.Sheets)),
		slog.Int("rows", rows),
		slog.Int("unresolved_sheets", unresolved))

	return summary, nil
}

// Get returns the workbook with freshly computed sheet summaries
func (s *WorkbookService) Get(ctx context.Context, workbookID string) (*WorkbookSummary, error) {
	ctx, span := s.tracer.Start(ctx, "workbook.get",
		trace.WithAttributes(attribute.String("workbook.id", workbookID)))
	defer span.End()

	wb, ok := s.store.get(workbookID)
	if !ok {
		span.SetStatus(codes.Error, ErrWorkbookNotFound.Error())
		return nil, fmt.Errorf("%w: %s", ErrWorkbookNotFound, workbookID)
	}
	return s.summarize(ctx, wb), nil
}

// Delete discards a workbook
func (s *WorkbookService) Delete(ctx context.Context, workbookID string) error {
	if !s.store.delete(workbookID) {
		return fmt.Errorf("%w: %s", ErrWorkbookNotFound, workbookID)
	}
	s.logger.InfoContext(ctx, "Workbook deleted",
		slog.String("workbook_id", workbookID))
	return nil
}

// List returns the stored workbooks, oldest first
func (s *WorkbookService) List(ctx context.Context) []WorkbookListItem {
	workbooks := s.store.list()
	items := make([]WorkbookListItem, 0, len(workbooks))
	for _, wb := range workbooks {
		items = append(items, WorkbookListItem{
			ID:         wb.ID,
			FileName:   wb.FileName,
			UploadedAt: wb.UploadedAt,
			SheetCount: len(wb.Sheets),
		})
	}
	return items
}

// Count returns the number of workbooks held in memory
func (s *WorkbookService) Count() int {
	return s.store.len()
}

// Sheet returns one sheet with an aggregation computed from its records
func (s *WorkbookService) Sheet(ctx context.Context, workbookID, sheetID string) (*SheetDetail, error) {
	ctx, span := s.tracer.Start(ctx, "workbook.sheet",
		trace.WithAttributes(
			attribute.String("workbook.id", workbookID),
			attribute.String("sheet.id", sheetID),
		))
	defer span.End()

	sheet, err := s.lookup(workbookID, sheetID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	agg := s.aggregate(ctx, sheet)
	return &SheetDetail{
		SheetOverview: overview(sheet, agg),
		Entries:       agg.Entries,
	}, nil
}

// UpdateFields sets the placement code and denomination of a sheet. Values
// are stored trimmed; emptiness is only enforced at export time.
func (s *WorkbookService) UpdateFields(ctx context.Context, workbookID, sheetID, placement, denomination string) (*SheetOverview, error) {
	placement = strings.TrimSpace(placement)
	denomination = strings.TrimSpace(denomination)

	var updated SheetContext
	_, err := s.store.update(workbookID, func(wb *Workbook) error {
		i := wb.sheet(sheetID)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrSheetNotFound, sheetID)
		}
		wb.Sheets[i].Placement = placement
		wb.Sheets[i].Denomination = denomination
		updated = wb.Sheets[i]
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrWorkbookNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrWorkbookNotFound, workbookID)
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "Export fields updated",
		slog.String("workbook_id", workbookID),
		slog.String("sheet", updated.Name),
		slog.String("placement", placement),
		slog.String("denomination", denomination))

	ov := overview(updated, s.aggregate(ctx, updated))
	return &ov, nil
}

// ApplyPlacement sets a workbook-wide placement code on every sheet that has
// none yet. Sheets with their own placement keep it.
func (s *WorkbookService) ApplyPlacement(ctx context.Context, workbookID, placement string) (*WorkbookSummary, error) {
	placement = strings.TrimSpace(placement)

	filled := 0
	wb, err := s.store.update(workbookID, func(wb *Workbook) error {
		for i := range wb.Sheets {
			if wb.Sheets[i].Placement == "" {
				wb.Sheets[i].Placement = placement
				filled++
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWorkbookNotFound, workbookID)
	}

	s.logger.InfoContext(ctx, "Workbook placement applied",
		slog.String("workbook_id", workbookID),
		slog.String("placement", placement),
		slog.Int("sheets_filled", filled))

	return s.summarize(ctx, wb), nil
}

// Export renders the settlement file of a sheet. The sheet must have both
// export fields set.
func (s *WorkbookService) Export(ctx context.Context, workbookID, sheetID string) (*ExportFile, error) {
	ctx, span := s.tracer.Start(ctx, "workbook.export",
		trace.WithAttributes(
			attribute.String("workbook.id", workbookID),
			attribute.String("sheet.id", sheetID),
		))
	defer span.End()

	sheet, err := s.lookup(workbookID, sheetID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	agg := s.aggregate(ctx, sheet)
	content, err := exporter.Serialize(agg.Entries, sheet.Placement, sheet.Denomination)
	if err != nil {
		s.metrics.recordExport(ctx, "rejected")
		span.SetStatus(codes.Error, err.Error())
		s.logger.WarnContext(ctx, "Export rejected",
			slog.String("workbook_id", workbookID),
			slog.String("sheet", sheet.Name),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("export sheet %s: %w", sheet.Name, err)
	}

	file := &ExportFile{
		Name:    exporter.FileName(sheet.Denomination),
		Content: content,
	}
	s.metrics.recordExport(ctx, "ok")
	span.SetAttributes(
		attribute.String("export.file_name", file.Name),
		attribute.Int("export.lines", len(agg.Entries)),
	)
	s.logger.InfoContext(ctx, "Sheet exported",
		slog.String("workbook_id", workbookID),
		slog.String("sheet", sheet.Name),
		slog.String("file_name", file.Name),
		slog.Int("lines", len(agg.Entries)))

	return file, nil
}

// checkUpload applies the cheap checks before any decoding happens
func (s *WorkbookService) checkUpload(filename string, data []byte) error {
	if err := s.validator.ValidateWorkbookName(filename); err != nil {
		return err
	}
	if len(data) == 0 {
		return ErrEmptyUpload
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrUploadTooLarge, len(data), s.maxBytes)
	}
	return nil
}

func (s *WorkbookService) lookup(workbookID, sheetID string) (SheetContext, error) {
	wb, ok := s.store.get(workbookID)
	if !ok {
		return SheetContext{}, fmt.Errorf("%w: %s", ErrWorkbookNotFound, workbookID)
	}
	i := wb.sheet(sheetID)
	if i < 0 {
		return SheetContext{}, fmt.Errorf("%w: %s", ErrSheetNotFound, sheetID)
	}
	return wb.Sheets[i], nil
}

// aggregate runs the pipeline over a sheet's records. Results are never
// cached; records are immutable so a rerun is always equivalent.
func (s *WorkbookService) aggregate(ctx context.Context, sheet SheetContext) domain.Aggregation {
	_, span := s.tracer.Start(ctx, "sheet.aggregate",
		trace.WithAttributes(
			attribute.String("sheet.name", sheet.Name),
			attribute.Int("sheet.rows", len(sheet.Records)),
		))
	defer span.End()

	agg := dataprocessing.Aggregate(sheet.Records)
	span.SetAttributes(
		attribute.Bool("sheet.identifier_resolved", agg.IdentifierResolved()),
		attribute.Int("sheet.unique_identifiers", agg.Summary.UniqueIdentifierCount),
	)
	return agg
}

func (s *WorkbookService) summarize(ctx context.Context, wb *Workbook) *WorkbookSummary {
	summary := &WorkbookSummary{
		ID:            wb.ID,
		FileName:      wb.FileName,
		UploadedAt:    wb.UploadedAt,
		EmptyWorkbook: len(wb.Sheets) == 0,
		Sheets:        make([]SheetOverview, 0, len(wb.Sheets)),
	}
	for _, sh := range wb.Sheets {
		summary.Sheets = append(summary.Sheets, overview(sh, s.aggregate(ctx, sh)))
	}
	return summary
}

func overview(sheet SheetContext, agg domain.Aggregation) SheetOverview {
	return SheetOverview{
		ID:                 sheet.ID,
		Name:               sheet.Name,
		Placement:          sheet.Placement,
		Denomination:       sheet.Denomination,
		Fields:             agg.Fields,
		IdentifierResolved: agg.IdentifierResolved(),
		Summary:            agg.Summary,
	}
}

func formatOf(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}
