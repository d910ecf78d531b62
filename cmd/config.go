package cmd

import "github.com/spf13/cobra"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage crimemap configuration file values.",
	Long: `Create, edit, display, and delete the crimemap configuration file.

The configuration stores:
- workbook.path / workbook.sheet_match
- parser.period_markers / reject_substrings / reject_labels / region_mode / known_regions
- boundaries.path / boundaries.property
- export.quoting / export.file_prefix
- map.scale / map.title
- log.level / log.format`,
	Example: `
  # Create default config in $HOME/.crimemap.yaml
  crimemap config create

  # Show active config and source file
  crimemap config show

  # Open active config in editor (creates example if missing)
  crimemap config edit

  # Delete active config file
  crimemap config delete
`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
