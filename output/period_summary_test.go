package output

import (
	"bytes"
	"testing"

	"crimemap/report"
)

func TestBuildPeriodSummaries_GroupsAndSortsByPeriod(t *testing.T) {
	records := []report.Record{
		{Region: "Nairobi Central", Period: 2023, CountA: 120, CountB: 30, CountTotal: 150},
		{Region: "Kisumu Central", Period: 2022, CountA: 40, CountB: 10, CountTotal: 50},
		{Region: "Turkana Central", Period: 2023, CountA: 0, CountB: 5, CountTotal: 12},
	}

	summaries := BuildPeriodSummaries(records)
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	if summaries[0].Period != 2022 || summaries[0].Regions != 1 || summaries[0].CountTotal != 50 {
		t.Fatalf("unexpected 2022 summary: %+v", summaries[0])
	}
	want := PeriodSummary{Period: 2023, Regions: 2, CountA: 120, CountB: 35, CountTotal: 162}
	if summaries[1] != want {
		t.Fatalf("unexpected 2023 summary: %+v", summaries[1])
	}
}

func TestBuildPeriodSummaries_Empty(t *testing.T) {
	if got := BuildPeriodSummaries(nil); len(got) != 0 {
		t.Fatalf("expected no summaries, got %+v", got)
	}
}

func TestWritePeriodSummaries_CSV(t *testing.T) {
	var buf bytes.Buffer
	summaries := []PeriodSummary{{Period: 2023, Regions: 2, CountA: 120, CountB: 35, CountTotal: 162}}

	if err := WritePeriodSummaries(&buf, "csv", summaries); err != nil {
		t.Fatalf("write summaries: %v", err)
	}

	want := "Year,Counties,Male Offenders,Female Offenders,Total Crimes\n2023,2,120,35,162\n"
	if buf.String() != want {
		t.Fatalf("unexpected csv: %q", buf.String())
	}
}

func TestWritePeriodSummaries_UnsupportedFormat(t *testing.T) {
	if err := WritePeriodSummaries(&bytes.Buffer{}, "pdf", nil); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}
