package dataprocessing

import (
	"bytes"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"

	"settlecli/pkg/contracts/domain"
)

// Sheet is a raw cell matrix in source order
type Sheet struct {
	Name string
	Rows [][]domain.Cell
}

type workbookFormat int

const (
	formatUnknown workbookFormat = iota
	formatXLSX
	formatXLS
)

// detectFormat checks magic bytes for xlsx (ZIP/PK header) or xls (OLE2).
func detectFormat(data []byte) workbookFormat {
	if len(data) < 4 {
		return formatUnknown
	}
	if data[0] == 0x50 && data[1] == 0x4B && data[2] == 0x03 && data[3] == 0x04 {
		return formatXLSX
	}
	if data[0] == 0xD0 && data[1] == 0xCF && data[2] == 0x11 && data[3] == 0xE0 {
		return formatXLS
	}
	return formatUnknown
}

// ReadWorkbook decodes every sheet of an .xlsx or .xls buffer into a cell
// matrix. A sheet whose rows cannot be read is skipped; a buffer that is
// not a workbook at all fails with ErrUnreadableWorkbook.
func ReadWorkbook(data []byte) ([]Sheet, error) {
	switch detectFormat(data) {
	case formatXLSX:
		return readXLSX(data)
	case formatXLS:
		return readXLS(data)
	default:
		return nil, fmt.Errorf("%w: unrecognised file signature", ErrUnreadableWorkbook)
	}
}

func readXLSX(data []byte) ([]Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableWorkbook, err)
	}
	defer f.Close()

	var sheets []Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			slog.Warn("Skipping unreadable sheet",
				slog.String("sheet_name", name),
				slog.String("error", err.Error()))
			continue
		}

		matrix := make([][]domain.Cell, len(rows))
		for r, row := range rows {
			cells := make([]domain.Cell, len(row))
			for c, raw := range row {
				if raw == "" {
					continue
				}
				axis, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					cells[c] = domain.TextCell(raw)
					continue
				}
				typ, err := f.GetCellType(name, axis)
				if err != nil {
					typ = excelize.CellTypeUnset
				}
				cells[c] = xlsxCell(raw, typ)
			}
			matrix[r] = cells
		}
		sheets = append(sheets, Sheet{Name: name, Rows: matrix})
	}
	return sheets, nil
}

// xlsxCell maps a raw excelize value to a typed cell. Cells without an
// explicit string type hold numbers (dates are serial numbers too).
func xlsxCell(raw string, typ excelize.CellType) domain.Cell {
	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString,
		excelize.CellTypeFormula, excelize.CellTypeError:
		return domain.TextCell(raw)
	case excelize.CellTypeBool:
		return boolCell(raw == "1" || strings.EqualFold(raw, "true"))
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return domain.NumberCell(f)
	}
	return domain.TextCell(raw)
}

// xlsCellData is the part of xlsReader's cell interface used here
type xlsCellData interface {
	GetString() string
	GetFloat64() float64
	GetType() string
}

// boolCell keeps a false boolean falsy: it reads as an absent cell rather
// than the non-empty text "false".
func boolCell(v bool) domain.Cell {
	if v {
		return domain.TextCell("true")
	}
	return domain.EmptyCell()
}

func readXLS(data []byte) (sheets []Sheet, err error) {
	// xlsReader indexes record slices without bounds checks.
	defer func() {
		if r := recover(); r != nil {
			sheets = nil
			err = fmt.Errorf("%w: corrupt BIFF stream: %v", ErrUnreadableWorkbook, r)
		}
	}()

	workbook, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableWorkbook, err)
	}

	for i := 0; i < workbook.GetNumberSheets(); i++ {
		sheet, err := workbook.GetSheet(i)
		if err != nil || sheet == nil {
			slog.Warn("Skipping unreadable sheet", slog.Int("sheet_index", i))
			continue
		}

		var matrix [][]domain.Cell
		for r := 0; r <= int(sheet.GetNumberRows()); r++ {
			row, err := sheet.GetRow(r)
			if err != nil || row == nil {
				matrix = append(matrix, nil)
				continue
			}
			cols := row.GetCols()
			cells := make([]domain.Cell, len(cols))
			for c, col := range cols {
				if col == nil {
					continue
				}
				cells[c] = xlsCell(col)
			}
			matrix = append(matrix, cells)
		}
		sheets = append(sheets, Sheet{Name: sheet.GetName(), Rows: trimTrailingEmptyRows(matrix)})
	}
	return sheets, nil
}

func xlsCell(c xlsCellData) domain.Cell {
	typ := c.GetType()
	switch {
	case strings.Contains(typ, "Blank"):
		return domain.EmptyCell()
	case strings.Contains(typ, "Number"), strings.Contains(typ, "Rk"):
		return domain.NumberCell(c.GetFloat64())
	case strings.Contains(typ, "BoolErr"):
		switch c.GetString() {
		case "TRUE":
			return boolCell(true)
		case "FALSE":
			return boolCell(false)
		}
	}
	s := c.GetString()
	if s == "" {
		return domain.EmptyCell()
	}
	return domain.TextCell(s)
}

func trimTrailingEmptyRows(rows [][]domain.Cell) [][]domain.Cell {
	end := len(rows)
	for end > 0 && isEmptyRow(rows[end-1]) {
		end--
	}
	return rows[:end]
}

func isEmptyRow(row []domain.Cell) bool {
	for _, c := range row {
		if !c.IsAbsent() {
			return false
		}
	}
	return true
}
