package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"crimemap/report"
	"crimemap/storage"
)

func TestConfirmDeletePrompt(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "uppercase Y confirms", input: "Y\n", want: true},
		{name: "lowercase y does not confirm", input: "y\n", want: false},
		{name: "N does not confirm", input: "N\n", want: false},
		{name: "empty does not confirm", input: "\n", want: false},
		{name: "Y without newline confirms", input: "Y", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := confirmDeletePrompt(bytes.NewBufferString(tt.input), &out, "database file ./crimemap.db")
			if err != nil {
				t.Fatalf("confirm prompt returned error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			if !strings.Contains(out.String(), "database file ./crimemap.db") {
				t.Fatalf("expected prompt to name the target, got %q", out.String())
			}
		})
	}
}

func TestRemoveDatabaseFile(t *testing.T) {
	t.Run("deletes existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "crimemap.db")
		if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
			t.Fatalf("write temp db file: %v", err)
		}

		if err := removeDatabaseFile(path); err != nil {
			t.Fatalf("remove db file: %v", err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Fatalf("expected file to be deleted")
		}
	})

	t.Run("fails for directory path", func(t *testing.T) {
		dir := t.TempDir()
		if err := removeDatabaseFile(dir); err == nil {
			t.Fatalf("expected error for directory path")
		}
	})

	t.Run("fails for missing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.db")
		if err := removeDatabaseFile(path); err == nil {
			t.Fatalf("expected error for missing file")
		}
	})
}

func TestDeleteStoredDataset(t *testing.T) {
	t.Run("removes records and keeps the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "crimemap.db")
		store, err := storage.OpenSQLite(path)
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		_, err = store.ReplaceDataset(context.Background(), "report.xlsx", time.Now(), []report.Record{
			{Region: "Nairobi", Period: 2023, CountA: 10, CountB: 2, CountTotal: 12},
			{Region: "Kisumu", Period: 2023, CountA: 4, CountB: 1, CountTotal: 5},
		})
		if err != nil {
			t.Fatalf("replace dataset: %v", err)
		}
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}

		removed, err := deleteStoredDataset(context.Background(), path)
		if err != nil {
			t.Fatalf("delete stored dataset: %v", err)
		}
		if removed != 2 {
			t.Fatalf("expected 2 removed records, got %d", removed)
		}
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected database file to remain: %v", err)
		}
	})

	t.Run("fails for missing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.db")
		if _, err := deleteStoredDataset(context.Background(), path); err == nil {
			t.Fatalf("expected error for missing file")
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Fatalf("expected no database file to be created")
		}
	})
}
