package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/arovik/healthmate/internal/agent"
	"github.com/arovik/healthmate/internal/openai"
	"github.com/arovik/healthmate/internal/session"
	"github.com/arovik/healthmate/internal/tools"
	"github.com/arovik/healthmate/internal/types"
	"github.com/arovik/healthmate/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	noTools     bool
	interactive bool
	resume      bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start an interactive chat session with the health assistant.

By default the assistant can call its tools (BMI, water intake, medication
reminders, symptom search) when it decides they help. Use --no-tools for a
plain conversation, --it for the full-screen terminal UI, and --resume to
continue a previously saved session.

Special inputs:
  log symptom: <text>   Log a symptom locally
  show symptoms         View your symptom log
  save                  Save this session to disk
  quit, exit, bye       End the conversation`,
	Run: func(cmd *cobra.Command, args []string) {
		runChat()
	},
}

func init() {
	chatCmd.Flags().BoolVar(&noTools, "no-tools", false, "Disable tool calling")
	chatCmd.Flags().BoolVar(&interactive, "it", false, "Full-screen terminal UI")
	chatCmd.Flags().BoolVar(&resume, "resume", false, "Resume the saved session if present")
}

// newAgent wires up client, registry, and session for one chat process.
func newAgent() *agent.Agent {
	client := openai.NewClient(openai.Config{
		BaseURL: cfg.LLM.Endpoint,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		Timeout: time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	})

	var registry *tools.Registry
	if !noTools {
		registry = tools.NewRegistry()
		tools.RegisterHealthTools(registry)
	}

	var sess *session.Session
	if resume {
		loaded, err := session.Load(cfg.Session.File, uuid.NewString())
		if err != nil {
			fmt.Printf("⚠️  Could not resume session: %v\n", err)
		} else {
			sess = loaded
			fmt.Printf("✓ Resumed session from %s (%d messages)\n\n", cfg.Session.File, loaded.Len())
		}
	}
	if sess == nil {
		sess = session.New(uuid.NewString(), agent.SystemPrompt(!noTools))
	}

	return agent.New(agent.Config{
		Client:      client,
		Registry:    registry,
		Session:     sess,
		Logger:      logger,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	})
}

func runChat() {
	a := newAgent()

	if interactive {
		runTUI(a)
		return
	}

	printWelcome()
	fmt.Println("Agent: Hello! I'm your AI health assistant. How can I help you today?")
	fmt.Println()

	styles := chatStyles()
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print(styles.prompt.Render("You: "))

		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		lower := strings.ToLower(input)

		if lower == "quit" || lower == "exit" || lower == "bye" {
			fmt.Println("\nAgent: Take care and stay healthy! 👋")
			offerSave(a, scanner, styles)
			break
		}

		if handled := handleLocalCommand(a, input, lower, styles); handled {
			continue
		}

		fmt.Println()
		runTurn(a, input, styles)
	}
}

// handleLocalCommand resolves inputs that never contact the upstream service.
func handleLocalCommand(a *agent.Agent, input, lower string, styles replStyles) bool {
	switch lower {
	case "save":
		if err := a.Session().Save(cfg.Session.File); err != nil {
			fmt.Println(styles.errText.Render(fmt.Sprintf("❌ Could not save session: %v", err)))
		} else {
			fmt.Println(styles.success.Render("✓ Session saved to " + cfg.Session.File))
		}
		fmt.Println()
		return true

	case "show symptoms", "my symptoms", "symptom log":
		fmt.Println("\n" + a.Session().SymptomSummary())
		return true
	}

	if strings.HasPrefix(lower, "log symptom:") {
		symptom := strings.TrimSpace(input[len("log symptom:"):])
		if symptom == "" {
			fmt.Println(styles.dim.Render("Nothing to log. Usage: log symptom: <description>"))
			return true
		}
		a.Session().LogSymptom(symptom)
		fmt.Println(styles.success.Render("✓ Logged symptom: " + symptom))
		fmt.Println()
		return true
	}

	return false
}

// runTurn sends one utterance through the agent and prints the outcome.
func runTurn(a *agent.Agent, input string, styles replStyles) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	turn, err := a.Chat(ctx, input)
	if err != nil {
		fmt.Println(styles.errText.Render(fmt.Sprintf("❌ Error: %v", err)))
		fmt.Println(styles.dim.Render("Please check your API key and internet connection."))
		fmt.Println()
		return
	}

	for _, call := range turn.ToolCalls {
		fmt.Println(styles.tool.Render("🔧 Using tool: " + call.Name))
		if len(call.Arguments) > 0 {
			args, _ := json.Marshal(call.Arguments)
			fmt.Println(styles.dim.Render("   Arguments: " + string(args)))
		}
	}
	if len(turn.ToolCalls) > 0 {
		fmt.Println()
	}

	fmt.Printf("Agent: %s\n\n", turn.Answer)
}

// offerSave asks whether to persist the session on exit, as the original
// basic assistant did.
func offerSave(a *agent.Agent, scanner *bufio.Scanner, styles replStyles) {
	fmt.Print("\nSave this session? (yes/no): ")
	if !scanner.Scan() {
		return
	}
	if strings.ToLower(strings.TrimSpace(scanner.Text())) == "yes" {
		if err := a.Session().Save(cfg.Session.File); err != nil {
			fmt.Println(styles.errText.Render(fmt.Sprintf("❌ Could not save session: %v", err)))
			return
		}
		fmt.Println(styles.success.Render("✓ Session saved to " + cfg.Session.File))
	}
}

func runTUI(a *agent.Agent) {
	model := ui.NewModel(a.Session(), cfg.Session.File, func(message string) tea.Cmd {
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
			defer cancel()

			turn, err := a.Chat(ctx, message)
			if err != nil {
				return types.AgentEvent{
					State: types.StateError,
					Error: err,
				}
			}
			return types.AgentEvent{
				State:       types.StateResponding,
				FinalAnswer: turn.Answer,
				ToolCalls:   turn.ToolCalls,
			}
		}
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running UI: %v\n", err)
		os.Exit(1)
	}
}

// replStyles groups the lipgloss styles used by the plain REPL.
type replStyles struct {
	prompt  lipgloss.Style
	success lipgloss.Style
	errText lipgloss.Style
	dim     lipgloss.Style
	tool    lipgloss.Style
	header  lipgloss.Style
}

func chatStyles() replStyles {
	return replStyles{
		prompt:  lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")).Bold(true),
		success: lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")),
		errText: lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")),
		dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")),
		tool:    lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
		header:  lipgloss.NewStyle().Foreground(lipgloss.Color("#0D9488")).Bold(true),
	}
}

func printWelcome() {
	styles := chatStyles()
	divider := strings.Repeat("=", 60)

	fmt.Println()
	fmt.Println(styles.header.Render(divider))
	fmt.Println(styles.header.Render("🏥 HEALTHMATE - Your Personal Health Assistant"))
	fmt.Println(styles.header.Render(divider))
	fmt.Println()
	fmt.Println("📌 What I can do:")
	if noTools {
		fmt.Println("  • Answer health questions")
		fmt.Println("  • Track your symptoms")
		fmt.Println("  • Provide health tips")
		fmt.Println("  • Remember our conversation")
	} else {
		fmt.Println("  • Calculate your BMI")
		fmt.Println("  • Recommend daily water intake")
		fmt.Println("  • Set medication reminders")
		fmt.Println("  • Search symptoms for possible conditions")
		fmt.Println("  • Answer any health questions")
	}
	fmt.Println()
	fmt.Println("💡 Special commands:")
	fmt.Println("  • 'log symptom: [description]' - Log a symptom")
	fmt.Println("  • 'show symptoms' - View your symptom log")
	fmt.Println("  • 'save' - Save this session")
	fmt.Println("  • 'quit' or 'exit' - End the conversation")
	fmt.Println()
	fmt.Println(styles.dim.Render("⚠️  Remember: I'm not a doctor. For serious concerns, consult a healthcare professional."))
	fmt.Println(styles.header.Render(divider))
	fmt.Println()
}
