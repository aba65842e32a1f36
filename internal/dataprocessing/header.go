package dataprocessing

import (
	"log/slog"
	"strings"

	"settlecli/pkg/contracts/domain"
)

// headerSearchDepth bounds the scan for the header row
const headerSearchDepth = 20

// A header row must mention an identifier and a quantity column.
var (
	headerIdentifierHints = []string{"cuit", "cuil", "ident"}
	headerQuantityHints   = []string{"nominal", "monto", "cantidad", "vn"}
)

// rowText joins the lower-cased cell texts of a row with spaces
func rowText(row []domain.Cell) string {
	parts := make([]string, len(row))
	for i, c := range row {
		if c.Truthy() {
			parts[i] = strings.ToLower(c.String())
		}
	}
	return strings.Join(parts, " ")
}

func containsAny(s string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}

// FindHeaderRow returns the index of the first row within the first 20 that
// mentions both an identifier and a quantity column. The boolean is false
// when no row qualifies.
func FindHeaderRow(rows [][]domain.Cell) (int, bool) {
	for i := 0; i < len(rows) && i < headerSearchDepth; i++ {
		text := rowText(rows[i])
		if containsAny(text, headerIdentifierHints) && containsAny(text, headerQuantityHints) {
			return i, true
		}
	}
	return -1, false
}

// ExtractRecords turns a cell matrix into one RawRecord per row below the
// header row. Without a recognisable header row the first row is used as is.
// Columns whose header cell is empty are not carried into any record.
func ExtractRecords(rows [][]domain.Cell) []domain.RawRecord {
	if len(rows) == 0 {
		return nil
	}

	headerRow, found := FindHeaderRow(rows)
	if !found {
		slog.Debug("No header row matched, falling back to first row")
		headerRow = 0
	}

	labels := make([]string, len(rows[headerRow]))
	for i, c := range rows[headerRow] {
		if c.Truthy() {
			labels[i] = strings.TrimSpace(c.String())
		}
	}

	records := make([]domain.RawRecord, 0, len(rows)-headerRow-1)
	for _, row := range rows[headerRow+1:] {
		record := domain.NewRawRecord()
		for idx, label := range labels {
			if label == "" {
				continue
			}
			var value domain.Cell
			if idx < len(row) {
				value = row[idx]
			}
			record.Set(label, value)
		}
		records = append(records, record)
	}
	return records
}
