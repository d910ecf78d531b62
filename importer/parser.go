package importer

import (
	"strings"

	"crimemap/internal/classify"
	"crimemap/report"
)

// Step is the outcome of feeding one row to the parser.
type Step struct {
	Period int
	Reason classify.Reason
	Record report.Record
	Emit   bool
}

// Stats describes how the rows of a grid were consumed.
type Stats struct {
	RowsRead       int
	PeriodHeaders  int
	RecordsEmitted int
	Skipped        map[classify.Reason]int
}

// RowsSkipped is the number of rows that produced no record.
func (s Stats) RowsSkipped() int {
	total := 0
	for _, count := range s.Skipped {
		total += count
	}
	return total
}

type ParseResult struct {
	Records []report.Record
	Stats   Stats
}

// NextStep is the transition function of the parser: given the period carried
// from previous rows, it returns the period to carry forward and whether the
// row yields a record. It has no side effects.
func NextStep(currentPeriod int, row Row, classifier *classify.Classifier) Step {
	label, ok := row.Label()
	if !ok {
		return Step{Period: currentPeriod, Reason: classify.ReasonEmptyLabel}
	}

	if period, matched := classifier.MatchPeriod(label); matched {
		return Step{Period: period, Reason: classify.ReasonPeriodMarker}
	}

	reason := classifier.ClassifyLabel(label, currentPeriod != report.NoPeriod)
	if reason != classify.ReasonAccepted {
		return Step{Period: currentPeriod, Reason: reason}
	}

	return Step{
		Period: currentPeriod,
		Reason: reason,
		Emit:   true,
		Record: report.Record{
			Region:     strings.TrimSpace(label),
			Period:     currentPeriod,
			CountA:     parseCount(row.Cell(1)),
			CountB:     parseCount(row.Cell(2)),
			CountTotal: parseCount(row.Cell(3)),
		},
	}
}

// Parse folds NextStep over the grid in a single forward pass. Records come
// out in row order. Row-level problems never fail the parse.
func Parse(grid Grid, classifier *classify.Classifier) ParseResult {
	result := ParseResult{
		Records: make([]report.Record, 0, len(grid)),
		Stats:   Stats{Skipped: make(map[classify.Reason]int)},
	}

	period := report.NoPeriod
	for _, row := range grid {
		step := NextStep(period, row, classifier)
		period = step.Period
		result.Stats.RowsRead++

		switch {
		case step.Emit:
			result.Records = append(result.Records, step.Record)
			result.Stats.RecordsEmitted++
		case step.Reason == classify.ReasonPeriodMarker:
			result.Stats.PeriodHeaders++
		default:
			result.Stats.Skipped[step.Reason]++
		}
	}

	return result
}
