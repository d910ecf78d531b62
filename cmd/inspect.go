package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"crimemap/importer"
	"crimemap/report"

	"github.com/spf13/cobra"
)

var (
	inspectInput  string
	inspectFormat string
	inspectSheet  string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List worksheets and preview how the report parses",
	Long: `Dry-run the parser against a workbook without touching the database.

Prints the worksheet names (Excel only), marks the one selected by
workbook.sheet_match, then parses it and prints row statistics and the
records found per year.`,
	Example: `
  # Inspect the configured workbook
  crimemap inspect

  # Inspect another workbook with a different sheet match
  crimemap inspect -i ./report-2024.xlsx --sheet "Table 17.4"
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadRuntime()
		if err != nil {
			return err
		}

		input, err := resolveInputPath(inspectInput, cfg)
		if err != nil {
			return err
		}
		options, err := importOptions(cfg, inspectFormat, inspectSheet)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		format := strings.ToLower(strings.TrimSpace(inspectFormat))
		if format != "csv" && !strings.HasSuffix(strings.ToLower(input), ".csv") {
			sheets, err := importer.ListSheets(input)
			if err != nil {
				return err
			}
			printSheets(out, sheets, options.SheetMatch)
		}

		result, err := importer.Run(input, options)
		if err != nil {
			return err
		}
		printImportStats(out, result)
		printPeriodCounts(out, result.Records)
		return nil
	},
}

func printSheets(out io.Writer, sheets []string, match string) {
	fmt.Fprintf(out, "Worksheets: %d\n", len(sheets))
	selected := false
	for _, sheet := range sheets {
		marker := " "
		if !selected && strings.Contains(sheet, match) {
			marker = "*"
			selected = true
		}
		fmt.Fprintf(out, " %s %s\n", marker, sheet)
	}
}

func printPeriodCounts(out io.Writer, records []report.Record) {
	dataset := report.NewDataset("", "", time.Time{}, records)
	for _, period := range dataset.Periods() {
		fmt.Fprintf(out, "  %d: %d counties\n", period, len(dataset.Filter(period, "")))
	}
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVarP(&inspectInput, "input", "i", "", "Input file path (default: workbook.path from config)")
	inspectCmd.Flags().StringVarP(&inspectFormat, "format", "f", "", "Input format: csv|excel (optional, inferred from extension when omitted)")
	inspectCmd.Flags().StringVar(&inspectSheet, "sheet", "", "Worksheet name fragment (default: workbook.sheet_match from config)")
}
