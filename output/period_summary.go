package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"crimemap/report"
)

var periodSummaryHeader = []string{"Year", "Counties", "Male Offenders", "Female Offenders", "Total Crimes"}

// PeriodSummary totals all records of one period.
type PeriodSummary struct {
	Period     int
	Regions    int
	CountA     int
	CountB     int
	CountTotal int
}

// BuildPeriodSummaries groups records by period, ascending.
func BuildPeriodSummaries(records []report.Record) []PeriodSummary {
	if len(records) == 0 {
		return []PeriodSummary{}
	}

	byPeriod := make(map[int]*PeriodSummary)
	for _, record := range records {
		summary, ok := byPeriod[record.Period]
		if !ok {
			summary = &PeriodSummary{Period: record.Period}
			byPeriod[record.Period] = summary
		}
		summary.Regions++
		summary.CountA += record.CountA
		summary.CountB += record.CountB
		summary.CountTotal += record.CountTotal
	}

	summaries := make([]PeriodSummary, 0, len(byPeriod))
	for _, summary := range byPeriod {
		summaries = append(summaries, *summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Period < summaries[j].Period
	})
	return summaries
}

func WritePeriodSummaries(out io.Writer, format string, summaries []PeriodSummary) error {
	switch normalizeFormat(format) {
	case "", "csv":
		return writePeriodSummariesCSV(out, summaries)
	case "excel", "xlsx":
		rows := make([][]any, 0, len(summaries))
		for _, summary := range summaries {
			rows = append(rows, []any{summary.Period, summary.Regions, summary.CountA, summary.CountB, summary.CountTotal})
		}
		return writeExcelTable(out, "Summary", periodSummaryHeader, rows)
	default:
		return fmt.Errorf("unsupported output format for period summaries: %s", format)
	}
}

func writePeriodSummariesCSV(out io.Writer, summaries []PeriodSummary) error {
	writer := csv.NewWriter(out)
	if err := writer.Write(periodSummaryHeader); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}

	for _, summary := range summaries {
		row := []string{
			strconv.Itoa(summary.Period),
			strconv.Itoa(summary.Regions),
			strconv.Itoa(summary.CountA),
			strconv.Itoa(summary.CountB),
			strconv.Itoa(summary.CountTotal),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}
	return nil
}
