package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"crimemap/storage"

	"github.com/spf13/cobra"
)

var (
	deleteDBPath string
	deleteFile   bool
)

var (
	deletePromptInput  io.Reader = os.Stdin
	deletePromptOutput io.Writer = os.Stdout
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the stored dataset or the complete SQLite database file",
	Long: `Destructive database cleanup command.

By default the stored dataset and its records are removed and the database
file is kept. With --file the complete SQLite database file is deleted.
Before deletion, an interactive security prompt requires typing exactly "Y".`,
	Example: `
  # Remove the stored dataset (requires interactive confirmation)
  crimemap delete --db ./crimemap.db

  # Delete the complete SQLite file
  crimemap delete --db ./crimemap.db --file
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		target := "stored dataset in " + deleteDBPath
		if deleteFile {
			target = "database file " + deleteDBPath
		}
		confirmed, err := confirmDeletePrompt(deletePromptInput, deletePromptOutput, target)
		if err != nil {
			return err
		}
		if !confirmed {
			return fmt.Errorf("delete aborted: confirmation was not 'Y'")
		}

		if deleteFile {
			if err := removeDatabaseFile(deleteDBPath); err != nil {
				return err
			}
			fmt.Printf("Deleted database file: %s\n", deleteDBPath)
			return nil
		}

		removed, err := deleteStoredDataset(cmd.Context(), deleteDBPath)
		if err != nil {
			return err
		}
		fmt.Printf("Deleted stored dataset. Records removed: %d\n", removed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().StringVar(&deleteDBPath, "db", defaultDBPath, "Path to local SQLite database")
	deleteCmd.Flags().BoolVar(&deleteFile, "file", false, "Delete the complete database file instead of the stored dataset")
}

func deleteStoredDataset(ctx context.Context, path string) (int64, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("database file not found: %s", path)
		}
		return 0, fmt.Errorf("stat database file: %w", err)
	}

	store, err := storage.OpenSQLite(path)
	if err != nil {
		return 0, err
	}
	defer store.Close()

	return store.DeleteDataset(ctx)
}

func confirmDeletePrompt(input io.Reader, output io.Writer, target string) (bool, error) {
	if input == nil {
		return false, fmt.Errorf("delete confirmation input is not available")
	}

	if output == nil {
		output = io.Discard
	}

	if _, err := fmt.Fprintf(output, "Delete %s? Type Y to confirm: ", target); err != nil {
		return false, fmt.Errorf("write delete confirmation prompt: %w", err)
	}

	line, err := bufio.NewReader(input).ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			line = strings.TrimSpace(line)
			return line == "Y", nil
		}
		return false, fmt.Errorf("read delete confirmation: %w", err)
	}
	return strings.TrimSpace(line) == "Y", nil
}

func removeDatabaseFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("database file not found: %s", path)
		}
		return fmt.Errorf("stat database file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("database path is a directory: %s", path)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete database file: %w", err)
	}
	return nil
}
