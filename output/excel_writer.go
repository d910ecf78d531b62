package output

import (
	"fmt"
	"io"

	"crimemap/report"

	"github.com/xuri/excelize/v2"
)

const exportSheetName = "Crime Data"

type ExcelWriter struct{}

func (w *ExcelWriter) Extension() string { return "xlsx" }
func (w *ExcelWriter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (w *ExcelWriter) Write(out io.Writer, records []report.Record) error {
	rows := make([][]any, 0, len(records))
	for _, record := range records {
		rows = append(rows, []any{record.Region, record.Period, record.CountA, record.CountB, record.CountTotal})
	}
	return writeExcelTable(out, exportSheetName, Header, rows)
}

// writeExcelTable writes a single-sheet workbook with a header row. Numeric
// values stay numeric in the sheet.
func writeExcelTable(out io.Writer, sheet string, headers []string, rows [][]any) error {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName(file.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("rename excel sheet: %w", err)
	}

	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := file.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("set excel header %s: %w", cell, err)
		}
	}

	for i, values := range rows {
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("set excel value %s: %w", cell, err)
			}
		}
	}

	if _, err := file.WriteTo(out); err != nil {
		return fmt.Errorf("write excel output: %w", err)
	}
	return nil
}
