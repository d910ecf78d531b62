package importer

import "strings"

type CellKind int

const (
	CellEmpty CellKind = iota
	CellString
	CellNumber
	CellBool
)

func (k CellKind) String() string {
	switch k {
	case CellString:
		return "string"
	case CellNumber:
		return "number"
	case CellBool:
		return "bool"
	default:
		return "empty"
	}
}

// Cell is one scalar value of a worksheet. Text holds the raw (unformatted)
// value for every kind except CellEmpty.
type Cell struct {
	Kind CellKind
	Text string
}

func StringCell(value string) Cell {
	return Cell{Kind: CellString, Text: value}
}

func NumberCell(value string) Cell {
	return Cell{Kind: CellNumber, Text: value}
}

// Row is an ordered list of cells; trailing cells may be missing.
type Row []Cell

// Cell returns the cell at index i, or an empty cell when the row is shorter.
func (r Row) Cell(i int) Cell {
	if i < 0 || i >= len(r) {
		return Cell{}
	}
	return r[i]
}

// Label returns cell 0 when it is a string cell.
func (r Row) Label() (string, bool) {
	first := r.Cell(0)
	if first.Kind != CellString {
		return "", false
	}
	return first.Text, true
}

// Grid is the row-major cell matrix of one worksheet.
type Grid []Row

// labelCellFromText keeps a non-blank label as text, even when it looks numeric.
func labelCellFromText(value string) Cell {
	if strings.TrimSpace(value) == "" {
		return Cell{}
	}
	return StringCell(value)
}

// cellFromText infers the kind of a value read from a text source.
func cellFromText(value string) Cell {
	if strings.TrimSpace(value) == "" {
		return Cell{}
	}
	if looksNumeric(value) {
		return NumberCell(value)
	}
	return StringCell(value)
}
