package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/f3rmion/aimpact/internal/config"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize aimpact configuration",
	Long: `Write a config.yaml with every setting at its default.

The file holds:
  server     listen address, model and history paths, CORS origins
  client     the service URL the form talks to
  animation  counter and bar timings in milliseconds
  ui         big score font
  log        level and TUI log file`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().Bool("force", false, "overwrite existing configuration")
}

func runInit(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	path := getConfigFile()

	// Check if config already exists
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file already exists: %s\nUse --force to overwrite", path)
	}

	dir := filepath.Dir(path)
	if err := config.Save(path, config.Default(dir)); err != nil {
		return err
	}

	fmt.Printf("Initialized aimpact configuration in %s\n\n", dir)
	fmt.Printf("  Created %s\n", filepath.Base(path))
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Run 'aimpact train <dataset.csv>' to fit the model")
	fmt.Println("  2. Run 'aimpact serve' to start the prediction service")
	fmt.Println("  3. Run 'aimpact' to open the form")

	return nil
}
