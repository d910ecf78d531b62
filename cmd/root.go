/*
Copyright © 2025 riad@rsworld.eu

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"crimemap/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "crimemap",
	Short: "Parse crime statistics reports, export them and draw them on a county map.",
	Long: `
**********************************************
*                 CRIMEMAP                   *
**********************************************

This CLI reads the "Table 17.3" crime report worksheet (Excel or CSV export),
turns it into per-county, per-year records stored in a local SQLite database,
exports filtered views to CSV or Excel, renders choropleth maps and serves a
local dashboard.

Supported input formats:
- Excel: .xlsx, .xlsm (save legacy .xls workbooks as .xlsx first)
- CSV: .csv
`,
	Example: `
  # Create configuration file
  crimemap config create

  # List worksheets of a workbook and preview the parse
  crimemap inspect -i Governance-Peace-and-Security.xlsx

  # Import the report into the local database
  crimemap import -i Governance-Peace-and-Security.xlsx

  # Export the 2023 records for Nairobi
  crimemap export --year 2023 --search nairobi

  # Render the 2022 map of female offenders
  crimemap render --year 2022 --metric female -o ./map-2022.png

  # Start the dashboard
  crimemap serve --port 8080
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	config.SetDefaults()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "configFile", "", "Config file override (default discovery: $HOME/.crimemap.yaml, then ./.crimemap.yaml)")
}

// initConfig reads in the .env file, the config file and ENV variables if set.
func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "Warning: failed to read .env file:", err)
	}

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".crimemap" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".crimemap")
	}

	// CRIMEMAP_WORKBOOK_PATH overrides workbook.path
	viper.SetEnvPrefix("crimemap")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintln(os.Stderr, "No config file found, using defaults. Create one with: crimemap config create")
			return
		}
		fmt.Fprintln(os.Stderr, "Warning: failed to read config file:", err)
	}
}
