package cli

import (
	"fmt"
	"os"

	"github.com/ppiankov/a11yspectre/internal/config"
	"github.com/spf13/cobra"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the a11yspectre config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a commented sample config",
	Long: `Init writes a sample a11yspectre.yaml with every setting and its default.

Example:
  a11yspectre config init
  a11yspectre config init ~/a11yspectre.yaml --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false,
		"overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := "a11yspectre.yaml"
	if len(args) == 1 {
		path = args[0]
	}
	path, err := config.ResolvePath(path)
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !configInitForce {
		return &ValidationError{Message: fmt.Sprintf("%s already exists (use --force to overwrite)", path)}
	}

	if err := os.WriteFile(path, []byte(config.GenerateSampleConfig()), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Wrote %s\n", path)
	return nil
}
