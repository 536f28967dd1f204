// Package tools provides the tool framework for healthmate.
package tools

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/arovik/healthmate/internal/openai"
	"go.uber.org/zap"
)

// Tool defines the interface that all tools must implement.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description for the model.
	Description() string

	// Parameters returns the parameter schema for validation and advertisement.
	Parameters() []Parameter

	// Call runs the tool with validated arguments and returns a result map.
	// Every result carries a "message" string suitable for direct display.
	Call(ctx context.Context, args map[string]any) map[string]any
}

// Parameter defines a tool parameter with validation rules.
type Parameter struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"` // "string", "number", "integer", "array"
	Description string   `json:"description"`
	Required    bool     `json:"required"`
	Default     any      `json:"default,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Items       string   `json:"items,omitempty"` // element type when Type is "array"
}

// Registry manages tool registration and lookup.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates a new tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the registry.
func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool already registered: %s", name)
	}

	r.tools[name] = tool
	return nil
}

// MustRegister adds a tool to the registry, panicking on error.
func (r *Registry) MustRegister(tool Tool) {
	if err := r.Register(tool); err != nil {
		panic(err)
	}
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, exists := r.tools[name]
	return tool, exists
}

// List returns all registered tool names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns all registered tools in name order.
func (r *Registry) All() []Tool {
	tools := make([]Tool, 0)
	for _, name := range r.List() {
		if tool, ok := r.Get(name); ok {
			tools = append(tools, tool)
		}
	}
	return tools
}

// Definitions returns the tool list in the wire format advertised to the
// model. The schema is static for the process lifetime.
func (r *Registry) Definitions() []openai.ToolDefinition {
	all := r.All()
	defs := make([]openai.ToolDefinition, 0, len(all))
	for _, tool := range all {
		defs = append(defs, openai.ToolDefinition{
			Type: "function",
			Function: openai.FunctionDefinition{
				Name:        tool.Name(),
				Description: tool.Description(),
				Parameters:  schemaFor(tool.Parameters()),
			},
		})
	}
	return defs
}

// schemaFor converts a parameter list into a JSON-schema object descriptor.
func schemaFor(params []Parameter) map[string]any {
	properties := make(map[string]any, len(params))
	required := make([]string, 0)

	for _, p := range params {
		prop := map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		if p.Type == "array" {
			items := p.Items
			if items == "" {
				items = "string"
			}
			prop["items"] = map[string]any{"type": items}
		}
		properties[p.Name] = prop

		if p.Required {
			required = append(required, p.Name)
		}
	}

	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

// Executor handles tool execution with validation and timing.
type Executor struct {
	registry *Registry
	logger   *zap.Logger
}

// NewExecutor creates a new tool executor.
func NewExecutor(registry *Registry, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{registry: registry, logger: logger}
}

// Execute runs a tool by name with the given arguments. It never returns an
// error: unknown tools and invalid arguments become structured error results
// that are fed back to the model as tool output.
func (e *Executor) Execute(ctx context.Context, toolName string, args map[string]any) map[string]any {
	start := time.Now()

	tool, exists := e.registry.Get(toolName)
	if !exists {
		e.logger.Warn("unknown tool requested", zap.String("tool", toolName))
		return ErrorResult(fmt.Sprintf("tool %s not found", toolName))
	}

	if err := e.validateArgs(tool, args); err != nil {
		e.logger.Warn("tool argument validation failed",
			zap.String("tool", toolName),
			zap.Error(err))
		return ErrorResult(fmt.Sprintf("invalid arguments: %v", err))
	}

	args = e.applyDefaults(tool, args)
	result := tool.Call(ctx, args)

	e.logger.Info("tool executed",
		zap.String("tool", toolName),
		zap.Duration("duration", time.Since(start)))

	return result
}

// validateArgs checks required parameters, JSON types, and enum values.
// The model may hallucinate malformed arguments, so nothing is trusted.
func (e *Executor) validateArgs(tool Tool, args map[string]any) error {
	for _, def := range tool.Parameters() {
		value, exists := args[def.Name]

		if !exists {
			if def.Required {
				return fmt.Errorf("missing required parameter: %s", def.Name)
			}
			continue
		}

		switch def.Type {
		case "string":
			if _, ok := value.(string); !ok {
				return fmt.Errorf("parameter %s must be a string", def.Name)
			}
		case "number":
			if _, ok := toFloat(value); !ok {
				return fmt.Errorf("parameter %s must be a number", def.Name)
			}
		case "integer":
			f, ok := toFloat(value)
			if !ok || f != math.Trunc(f) {
				return fmt.Errorf("parameter %s must be an integer", def.Name)
			}
		case "array":
			if _, ok := value.([]any); !ok {
				return fmt.Errorf("parameter %s must be an array", def.Name)
			}
		}

		if len(def.Enum) > 0 {
			s, _ := value.(string)
			valid := false
			for _, allowed := range def.Enum {
				if s == allowed {
					valid = true
					break
				}
			}
			if !valid {
				return fmt.Errorf("invalid value for %s: must be one of %v", def.Name, def.Enum)
			}
		}
	}
	return nil
}

// applyDefaults fills in default values for missing optional parameters.
func (e *Executor) applyDefaults(tool Tool, args map[string]any) map[string]any {
	result := make(map[string]any, len(args))
	for k, v := range args {
		result[k] = v
	}

	for _, def := range tool.Parameters() {
		if _, exists := result[def.Name]; !exists && def.Default != nil {
			result[def.Name] = def.Default
		}
	}

	return result
}

// ErrorResult builds the structured error marker returned in place of a
// normal tool result.
func ErrorResult(msg string) map[string]any {
	return map[string]any{
		"error":   msg,
		"message": msg,
	}
}

// toFloat converts JSON-decoded numeric values to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
