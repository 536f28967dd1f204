// Package types defines shared data structures for healthmate.
package types

// ToolInvocation records one tool call resolved during a turn.
type ToolInvocation struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
	Result    map[string]any `json:"result"`
}

// AgentState represents the current state of turn processing.
type AgentState int

const (
	StateIdle AgentState = iota
	StateThinking
	StateToolExecuting
	StateResponding
	StateError
)

// String returns a human-readable state name.
func (s AgentState) String() string {
	names := [...]string{
		"Idle",
		"Thinking",
		"Executing tool",
		"Responding",
		"Error",
	}
	if int(s) < len(names) {
		return names[s]
	}
	return "Unknown"
}

// AgentEvent is sent during turn processing to update the UI.
type AgentEvent struct {
	State       AgentState
	FinalAnswer string
	ToolCalls   []ToolInvocation
	Error       error
}
