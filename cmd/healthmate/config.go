package main

import (
	"fmt"
	"os"

	"github.com/arovik/healthmate/internal/config"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or edit configuration",
	Long:  "View current configuration or create a default config file.",
	Run:   runConfig,
}

var configInit bool

func init() {
	configCmd.Flags().BoolVar(&configInit, "init", false, "Create default config file")
}

func runConfig(cmd *cobra.Command, args []string) {
	if configInit {
		initConfigFile()
		return
	}
	showConfig()
}

func initConfigFile() {
	if _, err := os.Stat("config.yaml"); err == nil {
		fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).
			Render("config.yaml already exists."))
		return
	}

	defaults := config.DefaultConfig()
	if err := defaults.Save("config.yaml"); err != nil {
		fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).
			Render(fmt.Sprintf("Failed to create config: %v", err)))
		os.Exit(1)
	}

	fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).
		Render("Created config.yaml with default settings."))
	fmt.Println("\nEdit this file to configure:")
	fmt.Println("  - Completion API endpoint and model")
	fmt.Println("  - Sampling parameters (temperature, max tokens)")
	fmt.Println("  - HTTP server address")
	fmt.Println("  - Session save file")
	fmt.Println("\nThe API key is read from the OPENAI_API_KEY environment variable.")
}

func showConfig() {
	shown := cfg
	shown.LLM.APIKey = "" // never print the credential

	data, err := yaml.Marshal(shown)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")).Bold(true).
		Render("Current Configuration:\n"))
	fmt.Println(string(data))

	fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")).
		Render("Config file locations (in order of precedence):"))
	fmt.Println("  1. ./config.yaml")
	fmt.Println("  2. ~/.healthmate/config.yaml")
	fmt.Println("\nEnvironment overrides use the HEALTHMATE_ prefix, e.g. HEALTHMATE_LLM_MODEL.")
}
