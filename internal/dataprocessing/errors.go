package dataprocessing

import "errors"

// ErrUnreadableWorkbook is returned when a byte buffer cannot be decoded as
// an .xlsx or .xls workbook. It is a file-level failure: no sheet of the
// upload is produced.
var ErrUnreadableWorkbook = errors.New("unreadable workbook")
