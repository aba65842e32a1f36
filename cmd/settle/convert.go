package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"settlecli/internal/dataprocessing"
	apperrors "settlecli/internal/errors"
	"settlecli/internal/exporter"
	"settlecli/internal/infrastructure"
	"settlecli/internal/validation"
)

// maxConcurrentFiles bounds how many workbooks are converted at once
const maxConcurrentFiles = 4

// errDuplicateOutput is reported when two sheets would write the same file
var errDuplicateOutput = errors.New("output file already produced in this run")

// fileResult is the outcome of converting one input workbook
type fileResult struct {
	Path   string
	Sheets []exporter.SheetReport
	Err    error
}

// converter turns workbooks into settlement text files. Files are
// independent; sheets of one file are handled in workbook order.
type converter struct {
	fields    fieldsTable
	sheet     string
	outDir    string
	dryRun    bool
	writer    *exporter.TextWriter
	validator *validation.FileValidator
	logger    *slog.Logger

	mu      sync.Mutex
	claimed map[string]string
}

// convertAll processes every path and returns the results in input order.
// A failing file never stops the others.
func (c *converter) convertAll(ctx context.Context, paths []string) []fileResult {
	results := make([]fileResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFiles)
	for i, path := range paths {
		g.Go(func() error {
			results[i] = c.convertFile(ctx, path)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (c *converter) convertFile(ctx context.Context, path string) fileResult {
	result := fileResult{Path: path}
	logger := c.logger.With(slog.String("file", path))

	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}

	if err := c.validator.ValidateWorkbookFile(path); err != nil {
		result.Err = err
		return result
	}

	sheets, err := dataprocessing.ParseFile(path)
	if err != nil {
		infrastructure.WithError(logger, err).ErrorContext(ctx, "Failed to parse workbook")
		result.Err = err
		return result
	}
	if len(sheets) == 0 {
		logger.WarnContext(ctx, "Workbook has no usable sheets")
	}

	var sheetErrs []error
	matched := false
	for _, sheet := range sheets {
		if c.sheet != "" && !strings.EqualFold(strings.TrimSpace(sheet.Name), strings.TrimSpace(c.sheet)) {
			continue
		}
		matched = true

		agg := dataprocessing.Aggregate(sheet.Records)
		report := exporter.SheetReport{
			File:    filepath.Base(path),
			Sheet:   sheet.Name,
			Fields:  agg.Fields,
			Summary: agg.Summary,
		}
		sheetLogger := logger.With(slog.String("sheet", sheet.Name))

		if !agg.IdentifierResolved() {
			sheetLogger.WarnContext(ctx, "No identifier column found, sheet yields no entries")
		}

		if c.dryRun {
			result.Sheets = append(result.Sheets, report)
			continue
		}

		f := c.fields.lookup(sheet.Name)
		content, err := exporter.Serialize(agg.Entries, strings.TrimSpace(f.Placement), strings.TrimSpace(f.Denomination))
		if err != nil {
			infrastructure.WithError(sheetLogger, err).WarnContext(ctx, "Skipping sheet without export fields")
			result.Sheets = append(result.Sheets, report)
			continue
		}

		name := exporter.FileName(f.Denomination)
		if err := c.claim(name, path, sheet.Name); err != nil {
			infrastructure.WithError(sheetLogger, err).ErrorContext(ctx, "Output name collision")
			sheetErrs = append(sheetErrs, err)
			result.Sheets = append(result.Sheets, report)
			continue
		}

		written, err := c.writer.WriteExport(c.outDir, name, content)
		if err != nil {
			infrastructure.WithError(sheetLogger, err).ErrorContext(ctx, "Failed to write export")
			sheetErrs = append(sheetErrs, apperrors.NewStorageError("write sheet "+sheet.Name, err).
				WithContext("output", name))
			result.Sheets = append(result.Sheets, report)
			continue
		}

		report.Output = written
		report.Exported = true
		result.Sheets = append(result.Sheets, report)
		sheetLogger.InfoContext(ctx, "Sheet exported",
			slog.String("output", written),
			slog.Int("lines", len(agg.Entries)))
	}

	if c.sheet != "" && !matched {
		logger.WarnContext(ctx, "Requested sheet not found", slog.String("sheet", c.sheet))
	}

	result.Err = errors.Join(sheetErrs...)
	return result
}

// claim reserves an output name for a sheet. The first sheet to claim a
// name keeps it.
func (c *converter) claim(name, path, sheet string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := strings.ToLower(name)
	owner := fmt.Sprintf("%s [%s]", filepath.Base(path), sheet)
	if prev, ok := c.claimed[key]; ok {
		return fmt.Errorf("%w: %s (sheet %s, first written by %s)", errDuplicateOutput, name, owner, prev)
	}
	c.claimed[key] = owner
	return nil
}
