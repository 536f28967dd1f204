// Package ui provides the terminal user interface using Bubble Tea.
package ui

import (
	"fmt"
	"strings"

	"github.com/arovik/healthmate/internal/session"
	"github.com/arovik/healthmate/internal/types"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// Model is the Bubble Tea model for the healthmate chat UI.
type Model struct {
	// UI components
	textInput textinput.Model
	spinner   spinner.Model
	viewport  viewport.Model
	styles    Styles

	// State
	state    types.AgentState
	messages []chatMessage
	width    int
	height   int
	ready    bool
	quitting bool
	err      error

	// Injected dependencies
	session     *session.Session
	sessionFile string
	processChat func(message string) tea.Cmd
}

// chatMessage represents a message in the chat transcript.
type chatMessage struct {
	role    string // "user", "assistant", "system", "tool"
	content string
	tool    *types.ToolInvocation
}

// NewModel creates a new UI model. processChat runs one turn against the
// agent and resolves to a types.AgentEvent.
func NewModel(sess *session.Session, sessionFile string, processChat func(message string) tea.Cmd) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask a health question... (e.g., 'Calculate my BMI - I'm 70kg and 175cm')"
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 80

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = DefaultStyles().Spinner

	vp := viewport.New(0, 0)
	vp.KeyMap = viewport.DefaultKeyMap()

	return Model{
		textInput:   ti,
		spinner:     s,
		viewport:    vp,
		styles:      DefaultStyles(),
		state:       types.StateIdle,
		messages:    make([]chatMessage, 0),
		session:     sess,
		sessionFile: sessionFile,
		processChat: processChat,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
	)
}

// headerHeight returns the number of terminal lines occupied by the banner.
func (m Model) headerHeight() int {
	banner := m.styles.BannerTitle.Render(Banner())
	return strings.Count(banner, "\n") + 3
}

// footerHeight returns the number of terminal lines occupied by the input + help bar.
func (m Model) footerHeight() int {
	return 4
}

// updateViewport rebuilds the viewport content and scrolls to the bottom.
func (m *Model) updateViewport() {
	var b strings.Builder

	for _, msg := range m.messages {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}

	if m.state != types.StateIdle {
		b.WriteString(m.renderStatus())
		b.WriteString("\n")
	}

	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit

		case tea.KeyEnter:
			if m.state != types.StateIdle {
				return m, nil
			}

			input := strings.TrimSpace(m.textInput.Value())
			if input == "" {
				return m, nil
			}

			if handled, cmd := m.handleCommand(input); handled {
				m.textInput.SetValue("")
				m.updateViewport()
				return m, cmd
			}

			m.messages = append(m.messages, chatMessage{
				role:    "user",
				content: input,
			})

			m.textInput.SetValue("")
			m.state = types.StateThinking
			m.updateViewport()

			if m.processChat != nil {
				cmds = append(cmds, m.processChat(input))
			}

			return m, tea.Batch(cmds...)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textInput.Width = msg.Width - 10

		vpWidth := msg.Width
		vpHeight := msg.Height - m.headerHeight() - m.footerHeight()
		if vpHeight < 1 {
			vpHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(vpWidth, vpHeight)
			m.viewport.KeyMap = viewport.DefaultKeyMap()
		} else {
			m.viewport.Width = vpWidth
			m.viewport.Height = vpHeight
		}

		m.ready = true
		m.updateViewport()

	case types.AgentEvent:
		newModel := m.handleAgentEvent(msg)
		newModel.updateViewport()
		return newModel, newModel.spinner.Tick

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
		m.updateViewport()
	}

	if m.state == types.StateIdle {
		var tiCmd tea.Cmd
		m.textInput, tiCmd = m.textInput.Update(msg)
		cmds = append(cmds, tiCmd)
	}

	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	cmds = append(cmds, vpCmd)

	return m, tea.Batch(cmds...)
}

// handleCommand processes inputs that never reach the upstream service.
func (m *Model) handleCommand(input string) (bool, tea.Cmd) {
	lower := strings.ToLower(input)

	switch lower {
	case "exit", "quit", "bye", "q":
		m.quitting = true
		return true, tea.Quit

	case "save":
		if err := m.session.Save(m.sessionFile); err != nil {
			m.systemMessage(fmt.Sprintf("Could not save session: %v", err))
		} else {
			m.systemMessage("✓ Session saved to " + m.sessionFile)
		}
		return true, nil

	case "show symptoms", "my symptoms", "symptom log":
		m.systemMessage(m.session.SymptomSummary())
		return true, nil

	case "help", "?":
		m.systemMessage(`Available commands:
  log symptom: <text>   Log a symptom
  show symptoms         View your symptom log
  save                  Save this session
  help, ?               Show this help
  quit, exit, bye       End the conversation`)
		return true, nil
	}

	if strings.HasPrefix(lower, "log symptom:") {
		symptom := strings.TrimSpace(input[len("log symptom:"):])
		if symptom == "" {
			m.systemMessage("Nothing to log. Usage: log symptom: <description>")
			return true, nil
		}
		m.session.LogSymptom(symptom)
		m.systemMessage("✓ Logged symptom: " + symptom)
		return true, nil
	}

	return false, nil
}

func (m *Model) systemMessage(content string) {
	m.messages = append(m.messages, chatMessage{role: "system", content: content})
}

// handleAgentEvent processes the outcome of a turn.
func (m Model) handleAgentEvent(event types.AgentEvent) Model {
	switch event.State {
	case types.StateResponding:
		for i := range event.ToolCalls {
			m.messages = append(m.messages, chatMessage{
				role: "tool",
				tool: &event.ToolCalls[i],
			})
		}
		if event.FinalAnswer != "" {
			m.messages = append(m.messages, chatMessage{
				role:    "assistant",
				content: event.FinalAnswer,
			})
		}

	case types.StateError:
		m.err = event.Error
		text := "An error occurred"
		if event.Error != nil {
			text = event.Error.Error()
		}
		m.messages = append(m.messages, chatMessage{
			role:    "system",
			content: "Error: " + text,
		})
	}

	m.state = types.StateIdle
	return m
}

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return m.styles.SystemMessage.Render("Take care and stay healthy! 👋\n")
	}

	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder

	b.WriteString(m.styles.BannerTitle.Render(Banner()))
	b.WriteString("\n\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	b.WriteString(m.styles.Prompt.Render("> "))
	if m.state == types.StateIdle {
		b.WriteString(m.textInput.View())
	} else {
		b.WriteString(m.styles.StatusText.Render("(thinking...)"))
	}
	b.WriteString("\n")
	b.WriteString(m.renderHelpBar())

	return m.styles.App.Render(b.String())
}

// renderMessage renders a single chat message.
func (m Model) renderMessage(msg chatMessage) string {
	switch msg.role {
	case "user":
		return m.styles.UserMessage.Render("You: " + msg.content)

	case "assistant":
		return m.styles.AssistantMessage.Render("Assistant: " + msg.content)

	case "system":
		return m.styles.SystemMessage.Render(msg.content)

	case "tool":
		if msg.tool != nil {
			return m.renderToolResult(msg.tool)
		}
	}
	return ""
}

// renderToolResult renders a resolved tool invocation.
func (m Model) renderToolResult(inv *types.ToolInvocation) string {
	var b strings.Builder

	b.WriteString(m.styles.ToolName.Render("🔧 " + inv.Name))

	if len(inv.Arguments) > 0 {
		args := make([]string, 0, len(inv.Arguments))
		for k, v := range inv.Arguments {
			args = append(args, fmt.Sprintf("%s=%v", k, v))
		}
		b.WriteString(" ")
		b.WriteString(m.styles.ToolParams.Render("(" + strings.Join(args, ", ") + ")"))
	}
	b.WriteString("\n")

	if errText, failed := inv.Result["error"].(string); failed {
		b.WriteString(m.styles.ToolError.Render("  ✗ " + errText))
		b.WriteString("\n")
	} else if message, ok := inv.Result["message"].(string); ok {
		b.WriteString(m.styles.ToolOutput.Render("  | " + message))
		b.WriteString("\n")
	}

	return m.styles.ToolBox.Render(b.String())
}

// renderStatus renders the current processing status.
func (m Model) renderStatus() string {
	return fmt.Sprintf("%s %s",
		m.spinner.View(),
		m.styles.StateLabel.Render(m.state.String()+"..."),
	)
}

// renderHelpBar renders the bottom help bar.
func (m Model) renderHelpBar() string {
	help := []string{
		m.styles.HelpKey.Render("enter") + m.styles.HelpValue.Render(" send"),
		m.styles.HelpKey.Render("ctrl+c") + m.styles.HelpValue.Render(" quit"),
		m.styles.HelpKey.Render("help") + m.styles.HelpValue.Render(" commands"),
		m.styles.HelpKey.Render("save") + m.styles.HelpValue.Render(" save session"),
	}
	return m.styles.HelpBar.Render(strings.Join(help, "  |  "))
}
