package cmd

import (
	"fmt"
	"io"
	"strings"

	"crimemap/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show active configuration values.",
	Long: `Display the currently loaded configuration and the resolved config file path.

This command validates the configuration before printing values. Without a
config file the built-in defaults are shown.`,
	Example: `
  # Show active configuration
  crimemap config show
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			fmt.Println("Invalid config:", err)
			return
		}

		if configPath := viper.ConfigFileUsed(); configPath != "" {
			fmt.Println("Config file loaded from:", configPath)
		} else {
			fmt.Println("No config file loaded, showing defaults.")
		}
		fmt.Println("Configuration:")
		printConfig(cmd.OutOrStdout(), cfg)
	},
}

func printConfig(out io.Writer, cfg *config.Config) {
	fmt.Fprintf(out, "%s: %s\n", config.KeyWorkbookPath, cfg.Workbook.Path)
	fmt.Fprintf(out, "%s: %s\n", config.KeyWorkbookSheetMatch, cfg.Workbook.SheetMatch)
	fmt.Fprintf(out, "%s: %s\n", config.KeyParserPeriodMarkers, strings.Join(cfg.Parser.PeriodMarkers, ", "))
	fmt.Fprintf(out, "%s: %s\n", config.KeyParserRejectSubstrings, strings.Join(cfg.Parser.RejectSubstrings, ", "))
	fmt.Fprintf(out, "%s: %s\n", config.KeyParserRejectLabels, strings.Join(cfg.Parser.RejectLabels, ", "))
	fmt.Fprintf(out, "%s: %s\n", config.KeyParserRegionMode, cfg.Parser.RegionMode)
	fmt.Fprintf(out, "%s: %d\n", config.KeyParserKnownRegions, len(cfg.Parser.KnownRegions))
	fmt.Fprintf(out, "%s: %s\n", config.KeyBoundariesPath, cfg.Boundaries.Path)
	fmt.Fprintf(out, "%s: %s\n", config.KeyBoundariesProperty, cfg.Boundaries.Property)
	fmt.Fprintf(out, "%s: %s\n", config.KeyExportQuoting, cfg.Export.Quoting)
	fmt.Fprintf(out, "%s: %s\n", config.KeyExportFilePrefix, cfg.Export.FilePrefix)
	fmt.Fprintf(out, "%s: %s\n", config.KeyMapScale, cfg.Map.Scale)
	fmt.Fprintf(out, "%s: %s\n", config.KeyMapTitle, cfg.Map.Title)
	fmt.Fprintf(out, "%s: %s\n", config.KeyLogLevel, cfg.Log.Level)
	fmt.Fprintf(out, "%s: %s\n", config.KeyLogFormat, cfg.Log.Format)
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
