package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	runFlags          RunConfig // values bound to the run command's flags
	validateModelPath string
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "reactsim",
	Short: "Stochastic simulator for reaction networks with delayed reactions",
}

// runCmd executes a simulation of the model given by --model
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a reaction-network simulation",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := resolveRunConfig(cmd.Flags(), runFlags)
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}

		// Set up logging
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", cfg.LogLevel)
		}
		logrus.SetLevel(level)

		logrus.Infof("Running model %s (seed=%d, output=%s)", cfg.ModelPath, cfg.Seed, cfg.Output)
		if _, err := runSimulation(cfg, cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
	},
}

// validateCmd checks a model file without running it
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a model file for definition errors",
	Run: func(cmd *cobra.Command, args []string) {
		if validateModelPath == "" {
			logrus.Fatalf("model file not provided; use --model")
		}
		if err := validateModel(validateModelPath, cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("Invalid model: %v", err)
		}
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	registerRunFlags(runCmd.Flags(), &runFlags)
	validateCmd.Flags().StringVar(&validateModelPath, "model", "", "Path to the YAML model description")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}
