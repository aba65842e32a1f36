// Package dataprocessing turns holder spreadsheets into per-holder totals.
//
// # Architecture
//
// The package is organized as a forward-only pipeline:
//
// 1. Workbook reading: .xlsx (excelize) and .xls (xlsReader) buffers become
// typed cell matrices, one per sheet.
// 2. Extraction: the header row is located among the first 20 rows and
// every row below it becomes a RawRecord keyed by header label.
// 3. Resolution: the identifier, quantity and name columns are picked by
// fragment matching on normalized labels.
// 4. Aggregation: records are grouped by digits-only identifier and their
// quantities summed with exact decimal arithmetic.
//
// # Usage
//
//	sheets, err := dataprocessing.ParseFile("colocacion.xlsx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, s := range sheets {
//	    agg := dataprocessing.Aggregate(s.Records)
//	    fmt.Println(s.Name, agg.Summary.UniqueIdentifierCount)
//	}
//
// # Error Handling
//
// Only file-level failures are errors (ErrUnreadableWorkbook). A sheet
// without an identifier column aggregates to zero entries, and a quantity
// that does not parse counts as zero.
package dataprocessing
