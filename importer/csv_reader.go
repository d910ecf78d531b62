package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CSVReader reads a CSV export of the report sheet. Sheet selection does not
// apply; the whole file is the grid. UTF-16 files with a BOM are decoded.
// CSV carries no cell types, so the label column is always text and the
// remaining columns are inferred.
type CSVReader struct{}

func (r *CSVReader) ReadGrid(path, _ string) (Grid, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv file %s: %w", path, err)
	}
	defer file.Close()

	return r.ReadGridFrom(file, "")
}

func (r *CSVReader) ReadGridFrom(source io.Reader, _ string) (Grid, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	reader := csv.NewReader(transform.NewReader(source, decoder))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	grid := make(Grid, 0, 128)
	rowNumber := 0
	for {
		values, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", rowNumber+1, err)
		}
		rowNumber++

		row := make(Row, len(values))
		for i, value := range values {
			if i == 0 {
				row[i] = labelCellFromText(value)
				continue
			}
			row[i] = cellFromText(value)
		}
		grid = append(grid, row)
	}

	return grid, nil
}
