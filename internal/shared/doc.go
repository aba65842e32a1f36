// Package shared holds code used across packages that belongs to no single
// layer. Today that is only the testutil subpackage:
//
//   - NewTestLogger, a slog logger that records every entry for assertions
//   - WorkbookBytes and WriteWorkbook, excelize-built holder workbooks
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    data := testutil.WorkbookBytes(t, testutil.Sheet("LECAP", rows...))
//	    ...
//	    testutil.AssertLogContains(t, logs, slog.LevelWarn, "no usable sheets")
//	}
package shared
