package domain

import (
	"github.com/shopspring/decimal"
)

// FieldKeys holds the column labels chosen for each semantic role of a
// sheet. An empty string means the role could not be resolved.
type FieldKeys struct {
	Identifier string `json:"identifier"`
	Quantity   string `json:"quantity"`
	Name       string `json:"name"`
}

// AggregatedEntry is the per-holder total of a sheet
type AggregatedEntry struct {
	Identifier string          `json:"identifier"`
	Name       string          `json:"name"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// SheetSummary describes one aggregation run. RowCount counts raw input
// rows, including the ones dropped for lack of an identifier.
type SheetSummary struct {
	RowCount              int             `json:"row_count"`
	UniqueIdentifierCount int             `json:"unique_identifier_count"`
	TotalQuantity         decimal.Decimal `json:"total_quantity"`
}

// Aggregation is the result of grouping a sheet's records by identifier
type Aggregation struct {
	Fields  FieldKeys         `json:"fields"`
	Entries []AggregatedEntry `json:"entries"`
	Summary SheetSummary      `json:"summary"`
}

// IdentifierResolved reports whether an identifier column was found
func (a Aggregation) IdentifierResolved() bool {
	return a.Fields.Identifier != ""
}

// Constant trailing fields of every settlement line
const (
	OutputHolderCode = "200"
	OutputHolderType = "Persona Humana"
	OutputIDType     = "CUIT"
)

// OutputRecord is one line of the settlement text file
type OutputRecord struct {
	PlacementCode string
	Denomination  string
	QuantityText  string
	Identifier    string
	Name          string
}

// Fields returns the eight columns in file order
func (o OutputRecord) Fields() []string {
	return []string{
		o.PlacementCode,
		o.Denomination,
		o.QuantityText,
		o.Identifier,
		o.Name,
		OutputHolderCode,
		OutputHolderType,
		OutputIDType,
	}
}
