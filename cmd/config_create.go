package cmd

import (
	"fmt"
	"io"

	"crimemap/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCreatePrint bool

var configCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a configuration file from the example template.",
	Long: `Create a new configuration file from the same example template used by "config edit".

If a configuration file is already in use, no new file is written.
With --print the template is written to stdout instead.`,
	Example: `
  # Create default config at $HOME/.crimemap.yaml
  crimemap config create

  # Create config next to the workbook
  crimemap --configFile ./.crimemap.yaml config create

  # Print the template
  crimemap config create --print > ./crimemap.yaml
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if configCreatePrint {
			_, err := io.WriteString(cmd.OutOrStdout(), config.ExampleYAML())
			return err
		}
		return saveDefaultConfig()
	},
}

func saveDefaultConfig() error {
	configPath, err := resolveConfigEditPath(cfgFile, viper.ConfigFileUsed())
	if err != nil {
		return err
	}

	created, err := ensureConfigFileWithTemplate(configPath)
	if err != nil {
		return err
	}

	if created {
		fmt.Printf("New config file created at: %s\n", configPath)
		fmt.Println("Set workbook.path and boundaries.path, then run: crimemap import")
		return nil
	}

	fmt.Printf("Config file already exists at: %s\n", configPath)
	return nil
}

func init() {
	configCmd.AddCommand(configCreateCmd)

	configCreateCmd.Flags().BoolVar(&configCreatePrint, "print", false, "Print the example template to stdout instead of writing a file")
}
