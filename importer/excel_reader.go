package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

type ExcelReader struct{}

func (r *ExcelReader) ReadGrid(path, sheetMatch string) (Grid, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open excel file %s: %w", path, err)
	}
	defer file.Close()

	grid, err := readSheetGrid(file, sheetMatch)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return grid, nil
}

// ReadGridFrom reads an uploaded workbook from r.
func (r *ExcelReader) ReadGridFrom(source io.Reader, sheetMatch string) (Grid, error) {
	file, err := excelize.OpenReader(source)
	if err != nil {
		return nil, fmt.Errorf("open excel workbook: %w", err)
	}
	defer file.Close()

	return readSheetGrid(file, sheetMatch)
}

func readSheetGrid(file *excelize.File, sheetMatch string) (Grid, error) {
	sheetName, err := findSheet(file, sheetMatch)
	if err != nil {
		return nil, err
	}

	rows, err := file.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read rows from sheet %s: %w", sheetName, err)
	}

	grid := make(Grid, 0, len(rows))
	for rowIndex, values := range rows {
		row := make(Row, len(values))
		for col, value := range values {
			if value == "" {
				continue
			}
			cellName, err := excelize.CoordinatesToCellName(col+1, rowIndex+1)
			if err != nil {
				return nil, fmt.Errorf("resolve cell name: %w", err)
			}
			cellType, err := file.GetCellType(sheetName, cellName)
			if err != nil {
				return nil, fmt.Errorf("read cell type %s!%s: %w", sheetName, cellName, err)
			}
			row[col] = cellFromExcel(cellType, value)
		}
		grid = append(grid, row)
	}

	return grid, nil
}

// ListSheets returns the worksheet names of a workbook in workbook order.
func ListSheets(path string) ([]string, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open excel file %s: %w", path, err)
	}
	defer file.Close()

	return file.GetSheetList(), nil
}

// findSheet returns the first sheet whose name contains match. An empty match
// selects the first sheet.
func findSheet(file *excelize.File, match string) (string, error) {
	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("%w: workbook has no sheets", ErrSheetNotFound)
	}
	if strings.TrimSpace(match) == "" {
		return sheets[0], nil
	}
	for _, name := range sheets {
		if strings.Contains(name, match) {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: no sheet name contains %q", ErrSheetNotFound, match)
}

// cellFromExcel maps an excelize cell type to a cell kind. Plain numbers carry
// no type attribute in the sheet XML, so untyped values are inferred.
func cellFromExcel(cellType excelize.CellType, value string) Cell {
	switch cellType {
	case excelize.CellTypeBool:
		return Cell{Kind: CellBool, Text: value}
	case excelize.CellTypeNumber, excelize.CellTypeDate:
		return NumberCell(value)
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula, excelize.CellTypeError:
		return StringCell(value)
	default:
		return cellFromText(value)
	}
}
