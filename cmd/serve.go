package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"crimemap/geo"
	"crimemap/internal/ingest"
	"crimemap/internal/observability"
	"crimemap/report"
	"crimemap/storage"
	"crimemap/web"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

var (
	servePort   int
	serveDBPath string
	serveNoOpen bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local crime map dashboard",
	Long: `Start a local HTTP server with the crime map dashboard, JSON API, CSV
download and Prometheus metrics.

The dataset is read from the SQLite database. When the database holds no
dataset yet, the workbook from workbook.path is imported first. Boundaries
come from boundaries.path. A piece that fails to load is logged once and
stays unavailable until restart; the dashboard then shows its loading state.`,
	Example: `
  # Start local server on default port
  crimemap serve

  # Start with explicit db and custom port, without opening a browser
  crimemap serve --port 9090 --db ./crimemap.db --no-open
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		options, err := importOptions(cfg, "", "")
		if err != nil {
			return err
		}

		store, err := storage.OpenSQLite(serveDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		clock := clockwork.NewRealClock()
		metrics := observability.NewMetrics()
		service := ingest.New(store, options, clock, metrics, logger)

		ctx := cmd.Context()
		dataset := loadServeDataset(ctx, store, service, cfg.Workbook.Path, logger)
		boundaries := loadServeBoundaries(cfg.Boundaries.Path, cfg.Boundaries.Property, logger)

		addr := fmt.Sprintf(":%d", servePort)
		server := &http.Server{
			Addr: addr,
			Handler: web.NewServer(*cfg, web.Dependencies{
				Importer:   service,
				Dataset:    dataset,
				Boundaries: boundaries,
				Metrics:    metrics,
				Logger:     logger,
				Clock:      clock,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.ListenAndServe()
		}()

		listenURL := fmt.Sprintf("http://localhost:%d", servePort)
		fmt.Printf("Listening on %s\n", listenURL)
		if !serveNoOpen {
			if openErr := openURLInBrowser(listenURL); openErr != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to open browser: %v\n", openErr)
			}
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-sigCh:
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown server: %w", err)
			}
			err := <-errCh
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&servePort, "port", 8080, "HTTP port for the local web server")
	serveCmd.Flags().StringVar(&serveDBPath, "db", defaultDBPath, "Path to local SQLite database")
	serveCmd.Flags().BoolVar(&serveNoOpen, "no-open", false, "Do not open browser automatically")
}

// loadServeDataset returns the stored dataset, importing workbookPath when
// the store is empty. Failures are logged and yield nil.
func loadServeDataset(ctx context.Context, store *storage.SQLiteStore, service *ingest.Service, workbookPath string, logger *slog.Logger) *report.Dataset {
	dataset, err := store.LoadDataset(ctx)
	if err == nil {
		logger.Info("dataset loaded", "dataset_id", dataset.ID, "source", dataset.Source, "records", dataset.Len())
		return dataset
	}
	if !errors.Is(err, storage.ErrNoDataset) {
		logger.Error("load stored dataset", "error", err)
		return nil
	}

	if workbookPath == "" {
		logger.Error("no stored dataset and no workbook configured")
		return nil
	}
	_, dataset, err = service.ImportFile(ctx, workbookPath)
	if err != nil {
		logger.Error("import workbook", "path", workbookPath, "error", err)
		return nil
	}
	return dataset
}

// loadServeBoundaries loads the boundary file. Failures are logged and yield
// nil.
func loadServeBoundaries(path, property string, logger *slog.Logger) *geo.Boundaries {
	if path == "" {
		logger.Error("no boundary file configured")
		return nil
	}
	boundaries, err := geo.LoadBoundaries(path, property)
	if err != nil {
		logger.Error("load boundaries", "path", path, "error", err)
		return nil
	}
	logger.Info("boundaries loaded", "path", path, "features", len(boundaries.Features), "skipped", boundaries.Skipped)
	return boundaries
}

func openURLInBrowser(rawURL string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", rawURL)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL)
	default:
		cmd = exec.Command("xdg-open", rawURL)
	}
	return cmd.Start()
}
