package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"crimemap/config"
	"crimemap/importer"
	"crimemap/internal/observability"
	"crimemap/report"
	"crimemap/storage"
)

const defaultDBPath = "./crimemap.db"

// loadRuntime loads and validates the active configuration and builds the
// process logger from its log section.
func loadRuntime() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadAndValidate()
	if err != nil {
		return nil, nil, err
	}
	logger := observability.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	return cfg, logger, nil
}

// importOptions builds parser options from config; non-empty flag values win.
func importOptions(cfg *config.Config, format, sheetMatch string) (importer.RunOptions, error) {
	rules, err := cfg.Parser.ClassifyRules()
	if err != nil {
		return importer.RunOptions{}, err
	}
	if strings.TrimSpace(sheetMatch) == "" {
		sheetMatch = cfg.Workbook.SheetMatch
	}
	return importer.RunOptions{
		Format:     format,
		SheetMatch: sheetMatch,
		Rules:      rules,
	}, nil
}

func resolveInputPath(flagValue string, cfg *config.Config) (string, error) {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue, nil
	}
	if strings.TrimSpace(cfg.Workbook.Path) != "" {
		return cfg.Workbook.Path, nil
	}
	return "", fmt.Errorf("no input file: pass --input or set %s", config.KeyWorkbookPath)
}

// loadStoredDataset opens the database and returns its current dataset.
func loadStoredDataset(ctx context.Context, dbPath string) (*report.Dataset, error) {
	store, err := storage.OpenSQLite(dbPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	dataset, err := store.LoadDataset(ctx)
	if errors.Is(err, storage.ErrNoDataset) {
		return nil, fmt.Errorf("%w in %s: run crimemap import first", err, dbPath)
	}
	return dataset, err
}

// resolvePeriod returns year, or the latest period of dataset when year is 0.
func resolvePeriod(dataset *report.Dataset, year int) (int, error) {
	if year < 0 {
		return 0, fmt.Errorf("invalid year %d", year)
	}
	if year > 0 {
		return year, nil
	}
	latest := dataset.LatestPeriod()
	if latest == report.NoPeriod {
		return 0, fmt.Errorf("dataset has no periods")
	}
	return latest, nil
}
