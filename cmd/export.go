package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"crimemap/output"

	"github.com/spf13/cobra"
)

var (
	exportFormat  string
	exportMode    string
	exportOutput  string
	exportDBPath  string
	exportYear    int
	exportSearch  string
	exportQuoting string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored crime records to CSV/Excel",
	Long: `Export the stored dataset.

Modes:
- records: one row per county for the selected year (County, Year, Male
  Offenders, Female Offenders, Total Crimes), optionally narrowed by --search
- summary: one row per year with county count and offender totals

Output format can be selected explicitly via --format or inferred from --output
extension. Without --output the file is named <export.file_prefix>-<year>.<ext>.
CSV quoting follows export.quoting unless --quoting is given.`,
	Example: `
  # Export the latest year to ./kenya-crime-data-<year>.csv
  crimemap export

  # Export 2022 records matching "nairobi" to Excel
  crimemap export --year 2022 --search nairobi --output ./nairobi-2022.xlsx

  # Reproduce the legacy unquoted CSV
  crimemap export --year 2023 --quoting naive

  # Export per-year totals
  crimemap export --mode summary --output ./summary.csv
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadRuntime()
		if err != nil {
			return err
		}

		format := exportFormat
		if strings.TrimSpace(format) == "" {
			format = detectExportFormat(exportOutput)
		}
		if strings.EqualFold(strings.TrimSpace(format), "xls") {
			return fmt.Errorf("xls output is not supported, use an .xlsx path")
		}
		quoting := exportQuoting
		if strings.TrimSpace(quoting) == "" {
			quoting = cfg.Export.Quoting
		}

		dataset, err := loadStoredDataset(cmd.Context(), exportDBPath)
		if err != nil {
			return err
		}

		mode := strings.TrimSpace(strings.ToLower(exportMode))
		switch mode {
		case "", "records":
			period, err := resolvePeriod(dataset, exportYear)
			if err != nil {
				return err
			}
			writer, err := output.WriterForFormat(format, quoting)
			if err != nil {
				return err
			}
			path := resolveExportPath(exportOutput, cfg.Export.FilePrefix, period, writer.Extension())
			records := dataset.Filter(period, exportSearch)
			if err := output.WriteFile(path, writer, records); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Export completed. Rows: %d, Year: %d, Mode: records, Format: %s, File: %s\n", len(records), period, format, path)
		case "summary":
			summaries := output.BuildPeriodSummaries(dataset.Records())
			path := exportOutput
			if strings.TrimSpace(path) == "" {
				path = cfg.Export.FilePrefix + "-summary." + extensionForFormat(format)
			}
			if err := writeSummaryFile(path, format, summaries); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Export completed. Years: %d, Mode: summary, Format: %s, File: %s\n", len(summaries), format, path)
		default:
			return fmt.Errorf("unsupported export mode: %s (supported: records, summary)", exportMode)
		}
		return nil
	},
}

func detectExportFormat(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "csv":
		return "csv"
	case "xlsx", "xlsm":
		return "excel"
	case "xls":
		return "xls"
	default:
		return "csv"
	}
}

func extensionForFormat(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "excel", "xlsx", "xlsm":
		return "xlsx"
	default:
		return "csv"
	}
}

func resolveExportPath(outputPath, prefix string, period int, extension string) string {
	if strings.TrimSpace(outputPath) != "" {
		return outputPath
	}
	return output.ExportFileName(prefix, period, extension)
}

func writeSummaryFile(path, format string, summaries []output.PeriodSummary) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create summary file: %w", err)
	}
	if err := output.WritePeriodSummaries(file, format, summaries); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close summary file: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportMode, "mode", "records", "Export mode: records|summary")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Output format: csv|excel (optional, inferred from output extension)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path (default: <export.file_prefix>-<year>.<ext>)")
	exportCmd.Flags().StringVar(&exportDBPath, "db", defaultDBPath, "Path to local SQLite database")
	exportCmd.Flags().IntVar(&exportYear, "year", 0, "Year to export (default: latest year in the dataset)")
	exportCmd.Flags().StringVar(&exportSearch, "search", "", "Case-insensitive county name filter")
	exportCmd.Flags().StringVar(&exportQuoting, "quoting", "", "CSV quoting: rfc4180|naive (default: export.quoting)")
}
