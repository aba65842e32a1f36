package testutil

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// SheetFixture is one worksheet of a fixture workbook. A nil value leaves
// its cell empty.
type SheetFixture struct {
	Name string
	Rows [][]interface{}
}

// Sheet builds a SheetFixture
func Sheet(name string, rows ...[]interface{}) SheetFixture {
	return SheetFixture{Name: name, Rows: rows}
}

// HoldersSheet is the canonical holder sheet: two rows for the same CUIT
// that aggregate to 1200 under the name "A".
func HoldersSheet(name string) SheetFixture {
	return Sheet(name,
		[]interface{}{"CUIT", "Nombre", "Nominales"},
		[]interface{}{"20-111-1", "A", "1.000,00"},
		[]interface{}{"20-111-1", nil, 200},
	)
}

// NewWorkbook builds an excelize file holding sheets in the given order.
// The caller must close it.
func NewWorkbook(t *testing.T, sheets ...SheetFixture) *excelize.File {
	t.Helper()
	f := excelize.NewFile()

	for i, s := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName(f.GetSheetName(0), s.Name))
		} else {
			_, err := f.NewSheet(s.Name)
			require.NoError(t, err)
		}
		for r, row := range s.Rows {
			for c, val := range row {
				if val == nil {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				require.NoError(t, err)
				require.NoError(t, f.SetCellValue(s.Name, cell, val))
			}
		}
	}
	return f
}

// WorkbookBytes returns the xlsx encoding of sheets
func WorkbookBytes(t *testing.T, sheets ...SheetFixture) []byte {
	t.Helper()
	f := NewWorkbook(t, sheets...)
	defer f.Close()

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

// WriteWorkbook saves an xlsx made of sheets at path
func WriteWorkbook(t *testing.T, path string, sheets ...SheetFixture) {
	t.Helper()
	f := NewWorkbook(t, sheets...)
	defer f.Close()
	require.NoError(t, f.SaveAs(path))
}
