// Package agent implements the tool-dispatch conversation loop for healthmate.
package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/arovik/healthmate/internal/openai"
	"github.com/arovik/healthmate/internal/session"
	"github.com/arovik/healthmate/internal/tools"
	"github.com/arovik/healthmate/internal/types"
	"github.com/arovik/healthmate/internal/validator"
	"go.uber.org/zap"
)

// Agent orchestrates one conversation session against the upstream
// completion service, dispatching tool calls when the model requests them.
type Agent struct {
	client         *openai.Client
	registry       *tools.Registry
	executor       *tools.Executor
	session        *session.Session
	inputValidator *validator.InputValidator
	logger         *zap.Logger
	temperature    float64
	maxTokens      int
}

// Config holds agent configuration.
type Config struct {
	Client      *openai.Client
	Registry    *tools.Registry // nil disables tool calling
	Session     *session.Session
	Logger      *zap.Logger
	Temperature float64
	MaxTokens   int
}

// New creates an agent bound to one session.
func New(cfg Config) *Agent {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 500
	}

	var executor *tools.Executor
	if cfg.Registry != nil {
		executor = tools.NewExecutor(cfg.Registry, cfg.Logger)
	}

	return &Agent{
		client:         cfg.Client,
		registry:       cfg.Registry,
		executor:       executor,
		session:        cfg.Session,
		inputValidator: validator.NewInputValidator(),
		logger:         cfg.Logger,
		temperature:    cfg.Temperature,
		maxTokens:      cfg.MaxTokens,
	}
}

// Turn is the outcome of one user utterance.
type Turn struct {
	Answer    string
	ToolCalls []types.ToolInvocation
}

// Session returns the session this agent is bound to.
func (a *Agent) Session() *session.Session {
	return a.session
}

// Chat processes one user utterance through to the final assistant reply.
//
// The first round-trip advertises the tool registry with an "auto" tool
// policy. If the model requests tool calls, each is executed locally in
// arrival order and its result appended as a tool message keyed by the call
// ID, then a second round-trip produces the final answer. On upstream
// failure the turn aborts without rolling back messages already appended.
func (a *Agent) Chat(ctx context.Context, userMessage string) (*Turn, error) {
	if err := a.inputValidator.Validate(userMessage); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	userMessage = a.inputValidator.Sanitize(userMessage)

	a.session.Append(openai.ChatMessage{
		Role:    openai.RoleUser,
		Content: userMessage,
	})

	opts := openai.Options{
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	}
	if a.registry != nil {
		opts.Tools = a.registry.Definitions()
		opts.ToolChoice = "auto"
	}

	reply, err := a.client.ChatCompletion(ctx, a.session.History(), opts)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}

	// Some compatible servers return tool calls even when none were
	// advertised. Without an executor there is nothing to dispatch, so the
	// reply is treated as a direct answer.
	if len(reply.ToolCalls) == 0 || a.executor == nil {
		a.session.Append(openai.ChatMessage{
			Role:    openai.RoleAssistant,
			Content: reply.Content,
		})
		return &Turn{Answer: reply.Content}, nil
	}

	// The upstream protocol requires the original tool-call message to be
	// present, ids intact, before the matching results follow.
	a.session.Append(*reply)

	invocations := make([]types.ToolInvocation, 0, len(reply.ToolCalls))
	for _, call := range reply.ToolCalls {
		result, args := a.resolveToolCall(ctx, call)

		content, merr := json.Marshal(result)
		if merr != nil {
			content = []byte(`{"error":"unserializable tool result"}`)
		}
		a.session.Append(openai.ChatMessage{
			Role:       openai.RoleTool,
			Content:    string(content),
			ToolCallID: call.ID,
		})

		invocations = append(invocations, types.ToolInvocation{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: args,
			Result:    result,
		})
	}

	// Second round-trip: no tools advertised, the model only has to
	// phrase the final answer from the results.
	final, err := a.client.ChatCompletion(ctx, a.session.History(), openai.Options{
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}

	a.session.Append(openai.ChatMessage{
		Role:    openai.RoleAssistant,
		Content: final.Content,
	})

	return &Turn{Answer: final.Content, ToolCalls: invocations}, nil
}

// resolveToolCall parses the call arguments and executes the tool. Malformed
// arguments and unknown tools become structured error results rather than
// aborting the turn.
func (a *Agent) resolveToolCall(ctx context.Context, call openai.ToolCall) (map[string]any, map[string]any) {
	a.logger.Info("dispatching tool call",
		zap.String("tool", call.Function.Name),
		zap.String("call_id", call.ID))

	var args map[string]any
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		return tools.ErrorResult(fmt.Sprintf("malformed arguments for %s: %v", call.Function.Name, err)), nil
	}

	return a.executor.Execute(ctx, call.Function.Name, args), args
}

// Ping checks whether the upstream service is reachable.
func (a *Agent) Ping(ctx context.Context) error {
	_, err := a.client.ChatCompletion(ctx, []openai.ChatMessage{
		{Role: openai.RoleUser, Content: "Respond with OK"},
	}, openai.Options{MaxTokens: 5})
	if err != nil {
		return fmt.Errorf("completion service not reachable: %w", err)
	}
	return nil
}

// ListTools returns metadata for the registered tools.
func (a *Agent) ListTools() []openai.ToolDefinition {
	if a.registry == nil {
		return nil
	}
	return a.registry.Definitions()
}

// ModelInfo returns information about the configured upstream model.
func (a *Agent) ModelInfo() string {
	return a.client.ModelInfo()
}
