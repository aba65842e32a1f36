package domain

import (
	"strconv"
)

// CellKind tags the value held by a Cell
type CellKind int

const (
	CellAbsent CellKind = iota
	CellText
	CellNumber
)

// String returns the kind name
func (k CellKind) String() string {
	switch k {
	case CellText:
		return "text"
	case CellNumber:
		return "number"
	default:
		return "absent"
	}
}

// Cell is a spreadsheet value as found in the source: absent, text or number.
// Numbers keep their native typing; nothing is coerced until a consumer asks.
type Cell struct {
	kind CellKind
	text string
	num  float64
}

// EmptyCell returns an absent cell
func EmptyCell() Cell {
	return Cell{}
}

// TextCell returns a text cell
func TextCell(s string) Cell {
	return Cell{kind: CellText, text: s}
}

// NumberCell returns a numeric cell
func NumberCell(f float64) Cell {
	return Cell{kind: CellNumber, num: f}
}

// Kind returns the cell tag
func (c Cell) Kind() CellKind {
	return c.kind
}

// IsAbsent reports whether the cell holds no value at all
func (c Cell) IsAbsent() bool {
	return c.kind == CellAbsent
}

// Text returns the text payload and true for text cells
func (c Cell) Text() (string, bool) {
	return c.text, c.kind == CellText
}

// Number returns the numeric payload and true for number cells
func (c Cell) Number() (float64, bool) {
	return c.num, c.kind == CellNumber
}

// Truthy is false for absent cells, empty text and the number zero.
func (c Cell) Truthy() bool {
	switch c.kind {
	case CellText:
		return c.text != ""
	case CellNumber:
		return c.num != 0 && c.num == c.num
	default:
		return false
	}
}

// String renders the cell as plain text. Numbers use the shortest
// decimal form without exponent so identifiers stored as numbers keep
// every digit.
func (c Cell) String() string {
	switch c.kind {
	case CellText:
		return c.text
	case CellNumber:
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	default:
		return ""
	}
}

// MarshalText lets cells appear in JSON payloads as their rendered text
func (c Cell) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
