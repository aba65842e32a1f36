// Package exporter writes settlement output for aggregated holder sheets.
//
// This package contains three main components:
//
// Settlement text: FormatQuantity, BuildRecords and Serialize turn the
// aggregated entries of a sheet into tab-delimited lines with the fixed
// holder code, holder type and identifier type columns. FileName derives
// the ".txt" file name from the denomination.
//
// TextWriter: writes the serialized text into the configured output
// directory, with an optional UTF-8 BOM.
//
// SummaryWorkbook: builds an xlsx report with one row per processed sheet.
//
// Example usage:
//
//	content, err := exporter.Serialize(agg.Entries, "4663", "LECAP")
//	if errors.Is(err, exporter.ErrMissingExportFields) {
//		// ask for the missing fields
//	}
//
//	writer := exporter.NewTextWriter(cfg.Export)
//	path, err := writer.WriteExport("", exporter.FileName("LECAP"), content)
package exporter
