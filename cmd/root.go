package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configPath string // Path to the run configuration YAML
	logLevel   string // Log verbosity level
	seed       int64  // Overrides the config seed when set
	workers    int    // Overrides the config worker count when set
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "ellipsfit",
	Short: "Inverse design of thin-film stacks from ellipsometric spectra",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logrus.SetLevel(level)
		return nil
	},
	SilenceUsage: true,
}

// loadConfig reads the --config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) *RunConfig {
	if configPath == "" {
		logrus.Fatalf("--config is required")
	}
	cfg, err := LoadRunConfig(configPath)
	if err != nil {
		logrus.Fatalf("Failed to load run config: %v", err)
	}
	if err := applyOverrides(cmd, cfg); err != nil {
		logrus.Fatalf("%v", err)
	}
	return cfg
}

// applyOverrides copies --seed and --workers into cfg, but only when the user set
// them; an unset flag must never replace the YAML value.
func applyOverrides(cmd *cobra.Command, cfg *RunConfig) error {
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("workers") {
		if workers < 0 {
			return fmt.Errorf("--workers must be non-negative, got %d", workers)
		}
		cfg.Workers = workers
	}
	return nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the run configuration YAML")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")

	invertCmd.Flags().Int64Var(&seed, "seed", 0, "Seed for random starts (overrides config)")
	invertCmd.Flags().IntVar(&workers, "workers", 0, "Parallel searches, 0 = CPU count (overrides config)")

	generateCmd.Flags().Int64Var(&seed, "seed", 0, "Seed for dataset generation (overrides config)")
	generateCmd.Flags().IntVar(&generateSystems, "systems", 1000, "Number of systems to simulate")
	generateCmd.Flags().StringVar(&generateOut, "out", "", "Archive path (defaults to the config archive)")

	rootCmd.AddCommand(invertCmd, generateCmd, materialsCmd)
}
