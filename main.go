package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"churnguard/config"
	"churnguard/logging"
	"churnguard/ml"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "churnguard",
	Short: "Customer churn prediction form",
	Long: `churnguard serves a form that collects a customer's account and
service details, runs them through the trained churn classifier and
shows the predicted churn risk with a recommendation.

The model, scaler and column list are loaded once at startup; a missing
or malformed artifact stops the process before anything is served.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		// config.yaml is optional unless --config was given explicitly.
		cfg, err = config.Load(configPath, !cmd.Flags().Changed("config"))
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if verbose {
			cfg.Log.Level = "debug"
		}
		logger, err = logging.New(cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd, checkCmd, predictCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var artifactErr *ml.ArtifactError
		if errors.As(err, &artifactErr) {
			fmt.Fprintf(os.Stderr, "Error loading artifacts: %v\n", artifactErr)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
