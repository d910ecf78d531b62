package importer

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"crimemap/internal/classify"
	"crimemap/report"
)

// Outcome distinguishes the ways an import can produce its record set.
type Outcome string

const (
	OutcomeOK           Outcome = "ok"
	OutcomeEmptySheet   Outcome = "empty_sheet"
	OutcomeAllRejected  Outcome = "all_rejected"
	OutcomeNoPeriodSeen Outcome = "no_period_seen"
)

type Result struct {
	Source  string
	Format  string
	Outcome Outcome
	Stats   Stats
	Records []report.Record
}

type RunOptions struct {
	Format     string
	SheetMatch string
	Rules      classify.Rules
}

// Run reads the report sheet from path and parses it. A missing worksheet is
// returned as an error wrapping ErrSheetNotFound; an empty or fully rejected
// sheet is a successful run with the matching Outcome.
func Run(path string, options RunOptions) (*Result, error) {
	format, err := inferFormat(path, options.Format)
	if err != nil {
		return nil, err
	}
	reader, err := ReaderForFormat(format)
	if err != nil {
		return nil, err
	}

	grid, err := reader.ReadGrid(path, options.SheetMatch)
	if err != nil {
		return nil, err
	}

	return buildResult(path, format, grid, options.Rules), nil
}

// RunReader is Run for an uploaded file. name is used for format inference
// and as the result source.
func RunReader(source io.Reader, name string, options RunOptions) (*Result, error) {
	format, err := inferFormat(name, options.Format)
	if err != nil {
		return nil, err
	}
	reader, err := ReaderForFormat(format)
	if err != nil {
		return nil, err
	}

	grid, err := reader.ReadGridFrom(source, options.SheetMatch)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return buildResult(name, format, grid, options.Rules), nil
}

func buildResult(source, format string, grid Grid, rules classify.Rules) *Result {
	parsed := Parse(grid, classify.New(rules))
	return &Result{
		Source:  source,
		Format:  format,
		Outcome: outcomeFor(parsed.Stats),
		Stats:   parsed.Stats,
		Records: parsed.Records,
	}
}

func outcomeFor(stats Stats) Outcome {
	switch {
	case stats.RecordsEmitted > 0:
		return OutcomeOK
	case stats.RowsRead == 0:
		return OutcomeEmptySheet
	case stats.PeriodHeaders == 0:
		return OutcomeNoPeriodSeen
	default:
		return OutcomeAllRejected
	}
}

func inferFormat(path string, format string) (string, error) {
	if strings.TrimSpace(format) != "" {
		return format, nil
	}

	extension := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch extension {
	case "csv":
		return "csv", nil
	case "xlsx", "xlsm":
		return "excel", nil
	case "xls":
		return "", fmt.Errorf("%s: %w", path, ErrLegacyExcel)
	default:
		return "", fmt.Errorf("unsupported file extension for %s", path)
	}
}
