package dataprocessing

import (
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"settlecli/pkg/contracts/domain"
)

// Aggregate groups a sheet's records by cleaned identifier, summing the
// quantities and keeping the first non-empty name seen for each holder.
// Entries come out in first-seen order. Rows without a usable identifier
// are dropped but still counted in the summary's RowCount.
func Aggregate(records []domain.RawRecord) domain.Aggregation {
	fields := ResolveFields(records)
	return AggregateWithFields(records, fields)
}

// AggregateWithFields aggregates using column keys resolved beforehand.
func AggregateWithFields(records []domain.RawRecord, fields domain.FieldKeys) domain.Aggregation {
	result := domain.Aggregation{
		Fields:  fields,
		Entries: []domain.AggregatedEntry{},
		Summary: domain.SheetSummary{
			RowCount:      len(records),
			TotalQuantity: decimal.Zero,
		},
	}
	if len(records) == 0 {
		return result
	}
	if fields.Identifier == "" {
		slog.Warn("Could not identify identifier column",
			slog.Int("row_count", len(records)))
		return result
	}

	index := make(map[string]int)
	for _, record := range records {
		id := CleanIdentifier(record.Get(fields.Identifier))
		if id == "" {
			continue
		}

		var name string
		if fields.Name != "" {
			if c := record.Get(fields.Name); c.Truthy() {
				name = strings.TrimSpace(c.String())
			}
		}

		quantity := decimal.Zero
		if fields.Quantity != "" {
			quantity = ParseQuantity(record.Get(fields.Quantity))
		}

		if i, ok := index[id]; ok {
			entry := &result.Entries[i]
			entry.Quantity = entry.Quantity.Add(quantity)
			if entry.Name == "" && name != "" {
				entry.Name = name
			}
			continue
		}
		index[id] = len(result.Entries)
		result.Entries = append(result.Entries, domain.AggregatedEntry{
			Identifier: id,
			Name:       name,
			Quantity:   quantity,
		})
	}

	total := decimal.Zero
	for _, e := range result.Entries {
		total = total.Add(e.Quantity)
	}
	result.Summary.UniqueIdentifierCount = len(result.Entries)
	result.Summary.TotalQuantity = total
	return result
}
