package cmd

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"crimemap/config"
	"crimemap/internal/classify"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configEditCheck bool

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the active config in an editor.",
	Long: `Open the active crimemap config file in your editor.

Editor selection order:
1) $VISUAL
2) $EDITOR
3) vi

If no config file exists yet, this command creates one with an example template first.
After the editor exits, the content is validated and the parser rules that
import will apply are printed. With --check the editor is skipped.`,
	Example: `
  # Edit active config
  crimemap config edit

  # Validate the active config and show its parser rules
  crimemap config edit --check
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := resolveConfigEditPath(cfgFile, viper.ConfigFileUsed())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if configEditCheck {
			return checkConfigFile(out, configPath)
		}

		created, err := ensureConfigFileWithTemplate(configPath)
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(out, "No config file found. Created example config at: %s\n", configPath)
		}

		editor := resolveEditorValue(os.Getenv("VISUAL"), os.Getenv("EDITOR"))
		editorCommand, err := buildEditorCommand(editor, configPath)
		if err != nil {
			return err
		}
		editorCommand.Stdin = os.Stdin
		editorCommand.Stdout = os.Stdout
		editorCommand.Stderr = os.Stderr
		if err := editorCommand.Run(); err != nil {
			return fmt.Errorf("opening editor failed: %w", err)
		}

		return checkConfigFile(out, configPath)
	},
}

// checkConfigFile validates the config at path and prints its parser rules.
func checkConfigFile(out io.Writer, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config failed: %w", err)
	}
	cfg, err := config.ValidateYAMLContent(content)
	if err != nil {
		return fmt.Errorf("config validation failed in %s: %w", path, err)
	}

	fmt.Fprintf(out, "Configuration validated: %s\n", path)
	if err := describeParserRules(out, cfg.Parser); err != nil {
		return fmt.Errorf("config validation failed in %s: %w", path, err)
	}
	return nil
}

func describeParserRules(out io.Writer, parser config.ParserConfig) error {
	rules, err := parser.ClassifyRules()
	if err != nil {
		return err
	}

	periods := make([]string, 0, len(rules.PeriodMarkers))
	for _, period := range parser.Periods() {
		periods = append(periods, strconv.Itoa(period))
	}
	fmt.Fprintf(out, "Periods: %s\n", strings.Join(periods, ", "))
	for _, marker := range rules.PeriodMarkers {
		if marker.Label != strconv.Itoa(marker.Period) {
			fmt.Fprintf(out, "  %q starts %d\n", marker.Label, marker.Period)
		}
	}

	switch rules.RegionMode {
	case classify.RegionModeClosed:
		fmt.Fprintf(out, "Region mode: closed (%d known regions)\n", len(rules.KnownRegions))
	default:
		fmt.Fprintln(out, "Region mode: open (any label not rejected)")
	}

	fmt.Fprintf(out, "Reject substrings: %s\n", joinOrNone(rules.RejectSubstrings))
	fmt.Fprintf(out, "Reject labels: %s\n", joinOrNone(rules.RejectLabels))
	return nil
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}

func resolveConfigEditPath(configFileFlag, configFileUsed string) (string, error) {
	if strings.TrimSpace(configFileFlag) != "" {
		return configFileFlag, nil
	}
	if strings.TrimSpace(configFileUsed) != "" {
		return configFileUsed, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".crimemap.yaml"), nil
}

func ensureConfigFileWithTemplate(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, fmt.Errorf("checking config file failed: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("creating config directory failed: %w", err)
	}
	if err := os.WriteFile(path, []byte(config.ExampleYAML()), 0o600); err != nil {
		return false, fmt.Errorf("creating example config failed: %w", err)
	}

	return true, nil
}

func resolveEditorValue(visual, editor string) string {
	if strings.TrimSpace(visual) != "" {
		return visual
	}
	if strings.TrimSpace(editor) != "" {
		return editor
	}
	return "vi"
}

func buildEditorCommand(editorValue, configPath string) (*exec.Cmd, error) {
	fields := strings.Fields(strings.TrimSpace(editorValue))
	if len(fields) == 0 {
		return nil, fmt.Errorf("editor command is empty")
	}

	args := append(fields[1:], configPath)
	return exec.Command(fields[0], args...), nil
}

func init() {
	configEditCmd.Flags().BoolVar(&configEditCheck, "check", false, "Validate the config and print its parser rules without opening an editor")
	configCmd.AddCommand(configEditCmd)
}
