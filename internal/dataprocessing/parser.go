package dataprocessing

import (
	"fmt"
	"log/slog"
	"os"

	"settlecli/pkg/contracts/domain"
)

// ParseFile reads a holder workbook from disk and extracts the records of
// every usable sheet.
func ParseFile(filePath string) ([]domain.SheetRows, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return ParseWorkbook(data)
}

// ParseWorkbook decodes a workbook buffer and extracts the records of each
// sheet, in workbook order. Sheets that yield no record are left out, so an
// empty result with a nil error means "no usable sheet", which callers must
// keep apart from ErrUnreadableWorkbook.
func ParseWorkbook(data []byte) ([]domain.SheetRows, error) {
	sheets, err := ReadWorkbook(data)
	if err != nil {
		return nil, err
	}

	result := make([]domain.SheetRows, 0, len(sheets))
	for _, sheet := range sheets {
		records := ExtractRecords(sheet.Rows)
		if len(records) == 0 {
			slog.Debug("Skipping sheet without data rows", slog.String("sheet_name", sheet.Name))
			continue
		}
		slog.Info("Sheet extracted",
			slog.String("sheet_name", sheet.Name),
			slog.Int("total_rows", len(sheet.Rows)),
			slog.Int("records", len(records)))
		result = append(result, domain.SheetRows{Name: sheet.Name, Records: records})
	}
	return result, nil
}
