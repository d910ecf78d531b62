package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"crimemap/importer"
	"crimemap/internal/classify"
	"crimemap/internal/ingest"
	"crimemap/internal/observability"
	"crimemap/report"
	"crimemap/storage"

	"github.com/jonboulle/clockwork"
)

const serveBoundaries = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{"COUNTY":"Mombasa"},
  "geometry":{"type":"Polygon","coordinates":[[[39.5,-4.1],[39.8,-4.1],[39.8,-3.9],[39.5,-3.9],[39.5,-4.1]]]}}
]}`

func openServeStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	store, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "crimemap.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func serveService(store *storage.SQLiteStore, now time.Time) *ingest.Service {
	options := importer.RunOptions{
		Rules: classify.Rules{PeriodMarkers: []classify.PeriodMarker{{Label: "2022", Period: 2022}}},
	}
	return ingest.New(store, options, clockwork.NewFakeClockAt(now), nil, observability.DiscardLogger())
}

func TestLoadServeDataset_UsesStoredDataset(t *testing.T) {
	t.Parallel()

	store := openServeStore(t)
	stored, err := store.ReplaceDataset(context.Background(), "stored.xlsx", time.Now(), []report.Record{
		{Region: "Kisumu", Period: 2021, CountA: 1, CountB: 1, CountTotal: 2},
	})
	if err != nil {
		t.Fatalf("replace dataset: %v", err)
	}

	dataset := loadServeDataset(context.Background(), store, serveService(store, time.Now()), "./missing.csv", observability.DiscardLogger())
	if dataset == nil || dataset.ID != stored.ID {
		t.Fatalf("expected stored dataset %s, got %+v", stored.ID, dataset)
	}
}

func TestLoadServeDataset_ImportsWorkbookWhenStoreIsEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "report.csv")
	if err := os.WriteFile(path, []byte("2022,,,\nMombasa,30,5,35\n"), 0o600); err != nil {
		t.Fatalf("write report: %v", err)
	}

	store := openServeStore(t)
	importedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	dataset := loadServeDataset(context.Background(), store, serveService(store, importedAt), path, observability.DiscardLogger())
	if dataset == nil {
		t.Fatalf("expected imported dataset")
	}
	if dataset.Len() != 1 || !dataset.ImportedAt.Equal(importedAt) {
		t.Fatalf("unexpected dataset: len=%d importedAt=%s", dataset.Len(), dataset.ImportedAt)
	}

	info, err := store.Info(context.Background())
	if err != nil {
		t.Fatalf("expected imported dataset to be stored: %v", err)
	}
	if info.ID != dataset.ID {
		t.Fatalf("expected stored id %s, got %s", dataset.ID, info.ID)
	}
}

func TestLoadServeDataset_FailureYieldsNil(t *testing.T) {
	t.Parallel()

	store := openServeStore(t)
	missing := filepath.Join(t.TempDir(), "missing.csv")
	if dataset := loadServeDataset(context.Background(), store, serveService(store, time.Now()), missing, observability.DiscardLogger()); dataset != nil {
		t.Fatalf("expected nil dataset when import fails")
	}
	if dataset := loadServeDataset(context.Background(), store, serveService(store, time.Now()), "", observability.DiscardLogger()); dataset != nil {
		t.Fatalf("expected nil dataset without workbook path")
	}
}

func TestLoadServeBoundaries(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "counties.geojson")
	if err := os.WriteFile(path, []byte(serveBoundaries), 0o600); err != nil {
		t.Fatalf("write boundaries: %v", err)
	}

	boundaries := loadServeBoundaries(path, "COUNTY", observability.DiscardLogger())
	if boundaries == nil || len(boundaries.Features) != 1 || boundaries.Features[0].Name != "Mombasa" {
		t.Fatalf("unexpected boundaries: %+v", boundaries)
	}

	if got := loadServeBoundaries(filepath.Join(t.TempDir(), "missing.geojson"), "COUNTY", observability.DiscardLogger()); got != nil {
		t.Fatalf("expected nil boundaries for missing file")
	}
}
