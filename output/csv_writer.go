package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"crimemap/report"
)

type Quoting string

const (
	// QuotingRFC4180 quotes fields containing commas, quotes or newlines.
	QuotingRFC4180 Quoting = "rfc4180"
	// QuotingNaive joins fields with commas and rows with "\n" without any
	// escaping and without a trailing newline. A region name containing a
	// comma shifts that row's columns.
	QuotingNaive Quoting = "naive"
)

func ParseQuoting(value string) (Quoting, error) {
	switch Quoting(normalizeFormat(value)) {
	case "", QuotingRFC4180:
		return QuotingRFC4180, nil
	case QuotingNaive:
		return QuotingNaive, nil
	default:
		return "", fmt.Errorf("unsupported csv quoting: %s", value)
	}
}

type CSVWriter struct {
	Quoting Quoting
}

func (w *CSVWriter) Extension() string   { return "csv" }
func (w *CSVWriter) ContentType() string { return "text/csv; charset=utf-8" }

func (w *CSVWriter) Write(out io.Writer, records []report.Record) error {
	if w.Quoting == QuotingNaive {
		return writeNaiveCSV(out, records)
	}

	writer := csv.NewWriter(out)
	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}
	for _, record := range records {
		if err := writer.Write(recordRow(record)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}
	return nil
}

func writeNaiveCSV(out io.Writer, records []report.Record) error {
	lines := make([]string, 0, len(records)+1)
	lines = append(lines, strings.Join(Header, ","))
	for _, record := range records {
		lines = append(lines, strings.Join(recordRow(record), ","))
	}

	if _, err := io.WriteString(out, strings.Join(lines, "\n")); err != nil {
		return fmt.Errorf("write csv output: %w", err)
	}
	return nil
}
