package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"crimemap/report"
)

// Header is the fixed column order of every record export.
var Header = []string{"County", "Year", "Male Offenders", "Female Offenders", "Total Crimes"}

type Writer interface {
	Write(w io.Writer, records []report.Record) error
	Extension() string
	ContentType() string
}

// WriterForFormat returns the writer for format. quoting only applies to csv.
func WriterForFormat(format, quoting string) (Writer, error) {
	switch normalizeFormat(format) {
	case "", "csv":
		mode, err := ParseQuoting(quoting)
		if err != nil {
			return nil, err
		}
		return &CSVWriter{Quoting: mode}, nil
	case "excel", "xlsx":
		return &ExcelWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteFile creates path and writes records to it with writer.
func WriteFile(path string, writer Writer, records []report.Record) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output %s: %w", path, err)
	}

	if err := writer.Write(file, records); err != nil {
		_ = file.Close()
		return fmt.Errorf("write output %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close output %s: %w", path, err)
	}
	return nil
}

// ExportFileName returns "<prefix>-<period>.<extension>".
func ExportFileName(prefix string, period int, extension string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "export"
	}
	extension = strings.TrimPrefix(strings.TrimSpace(extension), ".")
	if extension == "" {
		extension = "csv"
	}
	return fmt.Sprintf("%s-%d.%s", prefix, period, extension)
}

func recordRow(record report.Record) []string {
	return []string{
		record.Region,
		strconv.Itoa(record.Period),
		strconv.Itoa(record.CountA),
		strconv.Itoa(record.CountB),
		strconv.Itoa(record.CountTotal),
	}
}

func normalizeFormat(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}
