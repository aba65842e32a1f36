package exporter

import (
	"errors"
	"strings"

	"settlecli/pkg/contracts/domain"
)

// ErrMissingExportFields is returned when the placement code or the
// denomination is empty.
var ErrMissingExportFields = errors.New("placement code and denomination are required")

const (
	fieldSeparator  = "\t"
	recordSeparator = "\n"
	fileExtension   = ".txt"
)

// BuildRecords maps aggregated entries to output records, in entry order.
func BuildRecords(entries []domain.AggregatedEntry, placement, denomination string) []domain.OutputRecord {
	records := make([]domain.OutputRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, domain.OutputRecord{
			PlacementCode: placement,
			Denomination:  denomination,
			QuantityText:  FormatQuantity(e.Quantity),
			Identifier:    e.Identifier,
			Name:          e.Name,
		})
	}
	return records
}

// Serialize renders the settlement text for one sheet: one tab-separated
// line per entry, no header and no trailing newline. Field values are
// written as-is.
func Serialize(entries []domain.AggregatedEntry, placement, denomination string) (string, error) {
	if strings.TrimSpace(placement) == "" || strings.TrimSpace(denomination) == "" {
		return "", ErrMissingExportFields
	}

	records := BuildRecords(entries, placement, denomination)
	lines := make([]string, len(records))
	for i, r := range records {
		lines[i] = strings.Join(r.Fields(), fieldSeparator)
	}
	return strings.Join(lines, recordSeparator), nil
}

// FileName derives the export file name from the denomination. Path
// separators are replaced so the file always lands in the output directory.
func FileName(denomination string) string {
	name := strings.NewReplacer("/", "-", "\\", "-").Replace(strings.TrimSpace(denomination))
	if strings.HasSuffix(name, fileExtension) {
		return name
	}
	return name + fileExtension
}
