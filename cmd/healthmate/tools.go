package main

import (
	"fmt"

	"github.com/arovik/healthmate/internal/tools"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List available tools",
	Long: `List the tools the assistant can call.

The model decides when to use these during a chat; you can also phrase
questions that nudge it toward a specific tool.

Examples:
  healthmate tools           # List all tools
  healthmate tools --verbose # Show parameter details`,
	Run: func(cmd *cobra.Command, args []string) {
		runTools()
	},
}

func runTools() {
	registry := tools.NewRegistry()
	tools.RegisterHealthTools(registry)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#0D9488")).
		Bold(true)

	toolStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F59E0B")).
		Bold(true)

	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#9CA3AF"))

	paramStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#06B6D4"))

	dimStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280"))

	fmt.Println(headerStyle.Render("Available Tools"))
	fmt.Println()

	for _, tool := range registry.All() {
		fmt.Printf("  %s\n", toolStyle.Render("◆ "+tool.Name()))
		fmt.Printf("    %s\n", descStyle.Render(tool.Description()))

		params := tool.Parameters()
		if len(params) > 0 && verbose {
			fmt.Println("    Parameters:")
			for _, p := range params {
				req := ""
				if p.Required {
					req = " (required)"
				}
				fmt.Printf("      %s%s\n", paramStyle.Render(p.Name), req)
				fmt.Printf("        %s\n", descStyle.Render(p.Description))
				if len(p.Enum) > 0 {
					fmt.Printf("        %s\n", dimStyle.Render(fmt.Sprintf("One of: %v", p.Enum)))
				}
				if p.Default != nil {
					fmt.Printf("        %s\n", dimStyle.Render(fmt.Sprintf("Default: %v", p.Default)))
				}
			}
		}
		fmt.Println()
	}

	if !verbose {
		fmt.Println(dimStyle.Render("  Use --verbose for parameter details"))
	}
}
