package main

import (
	"fmt"
	"os"

	"github.com/arovik/healthmate/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	endpoint string
	model    string
	verbose  bool

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "healthmate",
	Short: "AI-powered personal health assistant",
	Long: `
  🏥 healthmate — your personal AI health assistant.

  Chat about health questions, track symptoms, and let the assistant use
  its tools to calculate BMI, recommend water intake, schedule medication
  reminders, and look up possible conditions for your symptoms.

Usage:
  healthmate chat              Start an interactive chat session
  healthmate chat --no-tools   Plain chat without tool calling
  healthmate chat --it         Full-screen terminal UI
  healthmate serve             Serve the assistant over HTTP
  healthmate tools             List available tools
  healthmate config            View/edit configuration
  healthmate version           Show version info

Examples:
  healthmate chat
  healthmate serve --addr :8081
  OPENAI_API_KEY=sk-... healthmate chat`,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if verbose {
			logger, err = zap.NewDevelopment()
		} else {
			logger, err = zap.NewProduction()
		}
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}

		cfg, err = config.Load()
		if err != nil {
			fmt.Printf("⚠️  Warning: Could not load config: %v\n", err)
			cfg = config.DefaultConfig()
		}

		// CLI flags override config file and environment
		if endpoint != "" {
			cfg.LLM.Endpoint = endpoint
		}
		if model != "" {
			cfg.LLM.Model = model
		}

		return nil
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "Completion API base URL")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "LLM model to use")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
