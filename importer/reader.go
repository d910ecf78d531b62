package importer

import (
	"errors"
	"fmt"
	"io"
)

// ErrSheetNotFound is returned when a workbook has no worksheet whose name
// contains the requested fragment. It is distinct from an empty worksheet.
var ErrSheetNotFound = errors.New("worksheet not found")

// ErrLegacyExcel is returned for the binary .xls format, which the Excel
// reader cannot open.
var ErrLegacyExcel = errors.New("xls (legacy binary Excel) is not supported, save the workbook as xlsx")

type Reader interface {
	ReadGrid(path, sheetMatch string) (Grid, error)
	ReadGridFrom(source io.Reader, sheetMatch string) (Grid, error)
}

func ReaderForFormat(format string) (Reader, error) {
	switch normalizeFormat(format) {
	case "csv":
		return &CSVReader{}, nil
	case "excel", "xlsx", "xlsm":
		return &ExcelReader{}, nil
	case "xls":
		return nil, ErrLegacyExcel
	default:
		return nil, fmt.Errorf("unsupported input format: %s", format)
	}
}
