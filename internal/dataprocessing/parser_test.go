package dataprocessing

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// buildWorkbook writes the given sheets (name → rows) into an in-memory xlsx.
func buildWorkbook(t *testing.T, sheets map[string][][]interface{}, order ...string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName(f.GetSheetName(0), name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			for c, val := range row {
				if val == nil {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				require.NoError(t, err)
				require.NoError(t, f.SetCellValue(name, cell, val))
			}
		}
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestParseWorkbook(t *testing.T) {
	data := buildWorkbook(t, map[string][][]interface{}{
		"LECAP": {
			{"Banco Ejemplo S.A."},
			{"Colocación 4663"},
			{},
			{"CUIT / CUIL", "Razón Social", "Valor Nominal"},
			{"20-111-1", "Ana", "1.000,00"},
			{"20-111-1", nil, 200},
			{"27-222-2", "Bea", 50},
		},
		"Vacia": {},
		"Notas": {
			{"solo un titulo"},
		},
	}, "LECAP", "Vacia", "Notas")

	sheets, err := ParseWorkbook(data)
	require.NoError(t, err)
	require.Len(t, sheets, 1, "empty and header-only sheets are left out")

	s := sheets[0]
	assert.Equal(t, "LECAP", s.Name)
	require.Len(t, s.Records, 3)
	assert.Equal(t, []string{"CUIT / CUIL", "Razón Social", "Valor Nominal"}, s.Records[0].Keys())

	agg := Aggregate(s.Records)
	assert.Equal(t, "CUIT / CUIL", agg.Fields.Identifier)
	assert.Equal(t, "Valor Nominal", agg.Fields.Quantity)
	assert.Equal(t, "Razón Social", agg.Fields.Name)
	require.Len(t, agg.Entries, 2)
	assert.Equal(t, "201111", agg.Entries[0].Identifier)
	assert.Equal(t, "Ana", agg.Entries[0].Name)
	assert.Equal(t, "1200", agg.Entries[0].Quantity.String())
	assert.Equal(t, "272222", agg.Entries[1].Identifier)
	assert.Equal(t, "1250", agg.Summary.TotalQuantity.String())
}

func TestParseWorkbook_BoolFalseNameIsBlank(t *testing.T) {
	data := buildWorkbook(t, map[string][][]interface{}{
		"Hoja1": {
			{"CUIT", "Nombre", "Cantidad"},
			{"20-1", false, 10},
			{"20-1", true, 5},
		},
	}, "Hoja1")

	sheets, err := ParseWorkbook(data)
	require.NoError(t, err)
	require.Len(t, sheets, 1)

	rec := sheets[0].Records[0]
	assert.False(t, rec.Get("Nombre").Truthy())

	agg := Aggregate(sheets[0].Records)
	require.Len(t, agg.Entries, 1)
	assert.Equal(t, "true", agg.Entries[0].Name, "a false cell never fills the name")
	assert.Equal(t, "15", agg.Entries[0].Quantity.String())
}

func TestParseWorkbook_XLS(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "holders.xls"))
	require.NoError(t, err)

	sheets, err := ParseWorkbook(data)
	require.NoError(t, err)
	require.Len(t, sheets, 1, "the empty sheet is left out")

	s := sheets[0]
	assert.Equal(t, "LECAP", s.Name)
	require.Len(t, s.Records, 3)
	assert.Equal(t, []string{"CUIT", "Razón Social", "Nominales"}, s.Records[0].Keys())

	agg := Aggregate(s.Records)
	require.Len(t, agg.Entries, 2)
	assert.Equal(t, "201111", agg.Entries[0].Identifier, "text and numeric CUITs merge")
	assert.Equal(t, "A", agg.Entries[0].Name)
	assert.Equal(t, "1200", agg.Entries[0].Quantity.String())
	assert.Equal(t, "272222", agg.Entries[1].Identifier)
	assert.Equal(t, "", agg.Entries[1].Name)
	assert.Equal(t, "50.5", agg.Entries[1].Quantity.String())
	assert.Equal(t, "1250.5", agg.Summary.TotalQuantity.String())
}

func TestParseWorkbook_CorruptXLS(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "holders.xls"))
	require.NoError(t, err)

	// Point the first sheet past the end of the workbook stream.
	const sheetOffset = 512*3 + 24
	copy(data[sheetOffset:], []byte{0x00, 0x00, 0xFF, 0x7F})

	sheets, err := ParseWorkbook(data)
	assert.Nil(t, sheets)
	assert.True(t, errors.Is(err, ErrUnreadableWorkbook), "got %v", err)
}

func TestParseWorkbook_NumericIdentifiersKeepEveryDigit(t *testing.T) {
	data := buildWorkbook(t, map[string][][]interface{}{
		"Hoja1": {
			{"CUIT", "Cantidad"},
			{20123456789, 10},
			{int64(27333444559), 5.5},
		},
	}, "Hoja1")

	sheets, err := ParseWorkbook(data)
	require.NoError(t, err)
	require.Len(t, sheets, 1)

	agg := Aggregate(sheets[0].Records)
	require.Len(t, agg.Entries, 2)
	assert.Equal(t, "20123456789", agg.Entries[0].Identifier)
	assert.Equal(t, "27333444559", agg.Entries[1].Identifier)
	assert.Equal(t, "5.5", agg.Entries[1].Quantity.String())
}

func TestParseWorkbook_Unreadable(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty buffer", data: nil},
		{name: "plain text", data: []byte("CUIT;Nominales\n20-1;100\n")},
		{name: "corrupt zip", data: []byte{0x50, 0x4B, 0x03, 0x04, 0x00, 0x01}},
		{name: "truncated ole2 header", data: []byte{0xD0, 0xCF, 0x11, 0xE0, 0x00, 0x00, 0x00, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheets, err := ParseWorkbook(tt.data)
			assert.Nil(t, sheets)
			assert.True(t, errors.Is(err, ErrUnreadableWorkbook), "got %v", err)
		})
	}
}

func TestParseWorkbook_NoUsableSheets(t *testing.T) {
	data := buildWorkbook(t, map[string][][]interface{}{
		"Sheet1": {{"CUIT", "Nominales"}},
	}, "Sheet1")

	sheets, err := ParseWorkbook(data)
	require.NoError(t, err, "zero usable sheets is not a file failure")
	assert.Empty(t, sheets)
}

func TestParseFile(t *testing.T) {
	data := buildWorkbook(t, map[string][][]interface{}{
		"Sheet1": {
			{"CUIL", "Monto"},
			{"20-1", "10"},
		},
	}, "Sheet1")
	path := filepath.Join(t.TempDir(), "holders.xlsx")
	require.NoError(t, os.WriteFile(path, data, 0644))

	sheets, err := ParseFile(path)
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Len(t, sheets[0].Records, 1)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}
