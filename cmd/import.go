package cmd

import (
	"fmt"
	"io"

	"crimemap/importer"
	"crimemap/internal/classify"
	"crimemap/internal/ingest"
	"crimemap/storage"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

var (
	importInput  string
	importFormat string
	importSheet  string
	importDBPath string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Parse the crime report worksheet into the local SQLite database",
	Long: `Read the report worksheet, classify every row and replace the stored dataset
with the parsed county records.

The worksheet is the first sheet whose name contains workbook.sheet_match
("Table 17.3" by default). When --format is omitted, format is inferred from
the input file extension.

A report that yields no records (empty sheet, no period header, every row
rejected) does not replace the stored dataset and the command fails with the
outcome.`,
	Example: `
  # Import the workbook configured in workbook.path
  crimemap import

  # Import an explicit workbook into a custom database
  crimemap import -i Governance-Peace-and-Security.xlsx --db ./crimemap.db

  # Import a CSV export of the report sheet
  crimemap import -i table-17-3.csv --format csv

  # Import with custom config file
  crimemap --configFile ./custom-crimemap.yaml import -i ./report.xlsx
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}

		input, err := resolveInputPath(importInput, cfg)
		if err != nil {
			return err
		}
		options, err := importOptions(cfg, importFormat, importSheet)
		if err != nil {
			return err
		}

		store, err := storage.OpenSQLite(importDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		service := ingest.New(store, options, clockwork.NewRealClock(), nil, logger)
		result, dataset, err := service.ImportFile(cmd.Context(), input)
		if result != nil {
			printImportStats(cmd.OutOrStdout(), result)
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Import completed. Dataset: %s, Records stored: %d, Periods: %v\n",
			dataset.ID,
			dataset.Len(),
			dataset.Periods(),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVarP(&importInput, "input", "i", "", "Input file path (default: workbook.path from config)")
	importCmd.Flags().StringVarP(&importFormat, "format", "f", "", "Input format: csv|excel (optional, inferred from extension when omitted)")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "Worksheet name fragment (default: workbook.sheet_match from config)")
	importCmd.Flags().StringVar(&importDBPath, "db", defaultDBPath, "Path to local SQLite database")
}

func printImportStats(out io.Writer, result *importer.Result) {
	fmt.Fprintf(out, "Parsed %s (%s). Outcome: %s, Rows read: %d, Period headers: %d, Records: %d, Rows skipped: %d\n",
		result.Source,
		result.Format,
		result.Outcome,
		result.Stats.RowsRead,
		result.Stats.PeriodHeaders,
		result.Stats.RecordsEmitted,
		result.Stats.RowsSkipped(),
	)

	for _, reason := range classify.AllReasons() {
		if count := result.Stats.Skipped[reason]; count > 0 {
			fmt.Fprintf(out, "  skipped[%s]: %d\n", reason, count)
		}
	}
}
