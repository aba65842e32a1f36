package services

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// pipelineMetrics counts what flows through parsing, aggregation and export
type pipelineMetrics struct {
	workbooksParsed  metric.Int64Counter
	workbooksFailed  metric.Int64Counter
	sheetsParsed     metric.Int64Counter
	rowsParsed       metric.Int64Counter
	unresolvedSheets metric.Int64Counter
	exports          metric.Int64Counter
	parseDuration    metric.Float64Histogram
}

func newPipelineMetrics(meter metric.Meter) (*pipelineMetrics, error) {
	m := &pipelineMetrics{}
	var err error

	if m.workbooksParsed, err = meter.Int64Counter("settle_workbooks_parsed_total",
		metric.WithDescription("Workbooks parsed successfully"),
		metric.WithUnit("{workbook}")); err != nil {
		return nil, fmt.Errorf("failed to create workbooks counter: %w", err)
	}
	if m.workbooksFailed, err = meter.Int64Counter("settle_workbooks_failed_total",
		metric.WithDescription("Uploads rejected or unreadable"),
		metric.WithUnit("{workbook}")); err != nil {
		return nil, fmt.Errorf("failed to create failed workbooks counter: %w", err)
	}
	if m.sheetsParsed, err = meter.Int64Counter("settle_sheets_parsed_total",
		metric.WithDescription("Sheets with at least one record"),
		metric.WithUnit("{sheet}")); err != nil {
		return nil, fmt.Errorf("failed to create sheets counter: %w", err)
	}
	if m.rowsParsed, err = meter.Int64Counter("settle_rows_parsed_total",
		metric.WithDescription("Data rows extracted from sheets"),
		metric.WithUnit("{row}")); err != nil {
		return nil, fmt.Errorf("failed to create rows counter: %w", err)
	}
	if m.unresolvedSheets, err = meter.Int64Counter("settle_unresolved_sheets_total",
		metric.WithDescription("Sheets without an identifier column"),
		metric.WithUnit("{sheet}")); err != nil {
		return nil, fmt.Errorf("failed to create unresolved sheets counter: %w", err)
	}
	if m.exports, err = meter.Int64Counter("settle_exports_total",
		metric.WithDescription("Settlement files produced"),
		metric.WithUnit("{file}")); err != nil {
		return nil, fmt.Errorf("failed to create exports counter: %w", err)
	}
	if m.parseDuration, err = meter.Float64Histogram("settle_parse_duration_seconds",
		metric.WithDescription("Time spent decoding and extracting a workbook"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("failed to create parse duration histogram: %w", err)
	}

	return m, nil
}

func (m *pipelineMetrics) recordParsed(ctx context.Context, format string, sheets, rows, unresolved int, seconds float64) {
	attrs := metric.WithAttributes(attribute.String("format", format))
	m.workbooksParsed.Add(ctx, 1, attrs)
	m.sheetsParsed.Add(ctx, int64(sheets), attrs)
	m.rowsParsed.Add(ctx, int64(rows), attrs)
	m.unresolvedSheets.Add(ctx, int64(unresolved), attrs)
	m.parseDuration.Record(ctx, seconds, attrs)
}

func (m *pipelineMetrics) recordFailed(ctx context.Context, reason string) {
	m.workbooksFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *pipelineMetrics) recordExport(ctx context.Context, outcome string) {
	m.exports.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
