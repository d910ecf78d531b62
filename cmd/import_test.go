package cmd

import (
	"bytes"
	"strings"
	"testing"

	"crimemap/config"
	"crimemap/importer"
	"crimemap/internal/classify"
)

func mustConfig(t *testing.T, content string) *config.Config {
	t.Helper()
	cfg, err := config.ValidateYAMLContent([]byte(content))
	if err != nil {
		t.Fatalf("validate config: %v", err)
	}
	return cfg
}

func TestImportOptions(t *testing.T) {
	cfg := mustConfig(t, "parser:\n  period_markers: [\"2021\", \"2022\"]\n")

	options, err := importOptions(cfg, "csv", "")
	if err != nil {
		t.Fatalf("import options: %v", err)
	}
	if options.Format != "csv" || options.SheetMatch != config.DefaultSheetMatch {
		t.Fatalf("unexpected options: %+v", options)
	}
	if len(options.Rules.PeriodMarkers) != 2 || options.Rules.PeriodMarkers[1].Period != 2022 {
		t.Fatalf("unexpected period markers: %+v", options.Rules.PeriodMarkers)
	}

	options, err = importOptions(cfg, "", "Table 18.1")
	if err != nil {
		t.Fatalf("import options: %v", err)
	}
	if options.SheetMatch != "Table 18.1" {
		t.Fatalf("expected sheet flag to win, got %q", options.SheetMatch)
	}
}

func TestResolveInputPath(t *testing.T) {
	cfg := mustConfig(t, "workbook:\n  path: \"./configured.xlsx\"\n")

	got, err := resolveInputPath("./flag.xlsx", cfg)
	if err != nil || got != "./flag.xlsx" {
		t.Fatalf("expected flag path, got %q (%v)", got, err)
	}
	got, err = resolveInputPath("", cfg)
	if err != nil || got != "./configured.xlsx" {
		t.Fatalf("expected configured path, got %q (%v)", got, err)
	}

	cfg.Workbook.Path = ""
	if _, err := resolveInputPath("", cfg); err == nil {
		t.Fatalf("expected error without any input path")
	}
}

func TestPrintImportStats(t *testing.T) {
	var out bytes.Buffer
	printImportStats(&out, &importer.Result{
		Source:  "report.xlsx",
		Format:  "excel",
		Outcome: importer.OutcomeOK,
		Stats: importer.Stats{
			RowsRead:       10,
			PeriodHeaders:  2,
			RecordsEmitted: 5,
			Skipped: map[classify.Reason]int{
				classify.ReasonRejectedSubstring: 1,
				classify.ReasonPeriodMarker:      2,
				classify.ReasonNoPeriod:          2,
			},
		},
	})

	text := out.String()
	if !strings.Contains(text, "Outcome: ok, Rows read: 10, Period headers: 2, Records: 5, Rows skipped: 5") {
		t.Fatalf("unexpected stats line:\n%s", text)
	}
	noPeriod := strings.Index(text, "skipped[no_period]: 2")
	periodMarker := strings.Index(text, "skipped[period_marker]: 2")
	substring := strings.Index(text, "skipped[rejected_substring]: 1")
	if periodMarker < 0 || substring < periodMarker || noPeriod < substring {
		t.Fatalf("expected skip reasons in evaluation order:\n%s", text)
	}
	if strings.Contains(text, "skipped[empty_label]") || strings.Contains(text, "skipped[accepted]") {
		t.Fatalf("expected only reasons that occurred:\n%s", text)
	}
}
