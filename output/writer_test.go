package output

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"crimemap/report"

	"github.com/xuri/excelize/v2"
)

func exportRecords() []report.Record {
	return []report.Record{
		{Region: "Nairobi Central", Period: 2023, CountA: 120, CountB: 30, CountTotal: 150},
		{Region: "Kilimani, Nairobi", Period: 2023, CountA: 0, CountB: 5, CountTotal: 12},
	}
}

func TestCSVWriter_NaiveMatchesLegacyJoin(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	writer := &CSVWriter{Quoting: QuotingNaive}
	if err := writer.Write(&buf, exportRecords()); err != nil {
		t.Fatalf("write: %v", err)
	}

	want := "County,Year,Male Offenders,Female Offenders,Total Crimes\n" +
		"Nairobi Central,2023,120,30,150\n" +
		"Kilimani, Nairobi,2023,0,5,12"
	if buf.String() != want {
		t.Fatalf("unexpected naive csv:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestCSVWriter_RFC4180QuotesEmbeddedCommas(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	writer := &CSVWriter{Quoting: QuotingRFC4180}
	if err := writer.Write(&buf, exportRecords()); err != nil {
		t.Fatalf("write: %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), buf.String())
	}
	if lines[2] != `"Kilimani, Nairobi",2023,0,5,12` {
		t.Fatalf("unexpected quoted row: %q", lines[2])
	}
}

func TestCSVWriter_EmptyViewWritesHeaderOnly(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := (&CSVWriter{Quoting: QuotingNaive}).Write(&buf, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.String() != "County,Year,Male Offenders,Female Offenders,Total Crimes" {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestWriterForFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format    string
		quoting   string
		extension string
		wantErr   bool
	}{
		{format: "csv", quoting: "naive", extension: "csv"},
		{format: "", quoting: "", extension: "csv"},
		{format: "XLSX", extension: "xlsx"},
		{format: "excel", extension: "xlsx"},
		{format: "csv", quoting: "tsv", wantErr: true},
		{format: "json", wantErr: true},
	}

	for _, tc := range tests {
		writer, err := WriterForFormat(tc.format, tc.quoting)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("expected error for format %q quoting %q", tc.format, tc.quoting)
			}
			continue
		}
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", tc.format, err)
		}
		if writer.Extension() != tc.extension {
			t.Fatalf("unexpected extension for %q: %q", tc.format, writer.Extension())
		}
	}
}

func TestExportFileName(t *testing.T) {
	t.Parallel()

	if got := ExportFileName("kenya-crime-data", 2023, "csv"); got != "kenya-crime-data-2023.csv" {
		t.Fatalf("unexpected file name: %q", got)
	}
	if got := ExportFileName(" ", 2022, ".xlsx"); got != "export-2022.xlsx" {
		t.Fatalf("unexpected file name: %q", got)
	}
}

func TestExcelWriter_WritesNumericCells(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.xlsx")
	if err := WriteFile(path, &ExcelWriter{}, exportRecords()); err != nil {
		t.Fatalf("write file: %v", err)
	}

	file, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer file.Close()

	rows, err := file.GetRows(exportSheetName)
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != strings.Join(Header, ",") {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[2][0] != "Kilimani, Nairobi" || rows[2][4] != "12" {
		t.Fatalf("unexpected row: %v", rows[2])
	}
}
