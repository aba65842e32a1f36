package exporter

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"settlecli/pkg/contracts/domain"
)

const reportSheet = "Resumen"

// SheetReport is one row of the summary workbook
type SheetReport struct {
	File     string
	Sheet    string
	Fields   domain.FieldKeys
	Summary  domain.SheetSummary
	Output   string
	Exported bool
}

var reportHeaders = []interface{}{
	"Archivo", "Hoja", "Columna identificador", "Columna cantidad", "Columna nombre",
	"Filas", "Identificadores únicos", "Total", "Exportado",
}

// SummaryWorkbook builds an xlsx report with one row per processed sheet.
// The caller owns the returned file and must close it.
func SummaryWorkbook(reports []SheetReport) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name report sheet: %w", err)
	}

	if err := f.SetSheetRow(reportSheet, "A1", &reportHeaders); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write report header: %w", err)
	}

	for i, r := range reports {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		total, _ := r.Summary.TotalQuantity.Float64()
		exported := r.Output
		if !r.Exported {
			exported = "no"
		}
		row := []interface{}{
			r.File, r.Sheet,
			r.Fields.Identifier, r.Fields.Quantity, r.Fields.Name,
			r.Summary.RowCount, r.Summary.UniqueIdentifierCount, total,
			exported,
		}
		if err := f.SetSheetRow(reportSheet, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write report row %d: %w", i+1, err)
		}
	}

	return f, nil
}

// WriteSummaryWorkbook builds the report and saves it to path
func WriteSummaryWorkbook(path string, reports []SheetReport) error {
	f, err := SummaryWorkbook(reports)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report %s: %w", path, err)
	}
	return nil
}
