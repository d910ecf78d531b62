// Package ingest runs a report import end to end: parse, record metrics,
// persist and hand back the resulting dataset.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"crimemap/importer"
	"crimemap/internal/observability"
	"crimemap/report"
	"crimemap/storage"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// ErrNoRecords is returned when a report parsed cleanly but yielded nothing.
// The wrapped message names the importer.Outcome.
var ErrNoRecords = errors.New("no records parsed")

type Service struct {
	store   *storage.SQLiteStore
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *slog.Logger
	options importer.RunOptions
}

// New builds a Service. store may be nil, in which case datasets live only in
// memory. Nil clock, metrics and logger fall back to real time, no metrics
// and the default logger.
func New(store *storage.SQLiteStore, options importer.RunOptions, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   store,
		clock:   clock,
		metrics: metrics,
		logger:  logger,
		options: options,
	}
}

// ImportFile parses the report at path and, when it produced records,
// replaces the current dataset with it.
func (s *Service) ImportFile(ctx context.Context, path string) (*importer.Result, *report.Dataset, error) {
	result, err := importer.Run(path, s.options)
	return s.finish(ctx, path, result, err)
}

// ImportReader is ImportFile for an uploaded report named name.
func (s *Service) ImportReader(ctx context.Context, source io.Reader, name string) (*importer.Result, *report.Dataset, error) {
	result, err := importer.RunReader(source, name, s.options)
	return s.finish(ctx, name, result, err)
}

func (s *Service) finish(ctx context.Context, source string, result *importer.Result, err error) (*importer.Result, *report.Dataset, error) {
	if err != nil {
		outcome := "error"
		if errors.Is(err, importer.ErrSheetNotFound) {
			outcome = "sheet_not_found"
		}
		s.metrics.ObserveImport(outcome, -1)
		s.logger.Error("import failed", "source", source, "outcome", outcome, "error", err)
		return nil, nil, err
	}

	s.metrics.ObserveRows(result.Stats.Skipped, result.Stats.RecordsEmitted)
	s.logger.Info("report parsed",
		"source", source,
		"format", result.Format,
		"outcome", result.Outcome,
		"rows_read", result.Stats.RowsRead,
		"period_headers", result.Stats.PeriodHeaders,
		"records", result.Stats.RecordsEmitted,
		"rows_skipped", result.Stats.RowsSkipped(),
	)

	if result.Outcome != importer.OutcomeOK {
		s.metrics.ObserveImport(string(result.Outcome), -1)
		return result, nil, fmt.Errorf("%w: %s", ErrNoRecords, result.Outcome)
	}

	importedAt := s.clock.Now()
	var dataset *report.Dataset
	if s.store != nil {
		dataset, err = s.store.ReplaceDataset(ctx, source, importedAt, result.Records)
		if err != nil {
			s.metrics.ObserveImport("error", -1)
			return result, nil, fmt.Errorf("store dataset: %w", err)
		}
	} else {
		dataset = report.NewDataset(uuid.NewString(), source, importedAt, result.Records)
	}

	s.metrics.ObserveImport(string(result.Outcome), dataset.Len())
	s.logger.Info("dataset replaced", "dataset_id", dataset.ID, "records", dataset.Len())
	return result, dataset, nil
}
