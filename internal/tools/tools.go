package tools

import (
	"context"
	"fmt"

	"bible-chat/backend/internal/llm"
	"bible-chat/backend/internal/logger"
)

// Tool is a function the model may call during generation.
type Tool interface {
	Spec() llm.ToolSpec
	Execute(ctx context.Context, args map[string]any) (map[string]any, error)
}

// Registry holds the tools offered to the model.
type Registry struct {
	tools  []Tool
	byName map[string]Tool
}

// NewRegistry creates a registry. Later tools with a duplicate name are
// ignored.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{byName: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		name := t.Spec().Name
		if _, dup := r.byName[name]; dup {
			continue
		}
		r.byName[name] = t
		r.tools = append(r.tools, t)
	}
	return r
}

// Specs returns the declarations of every tool in registration order.
func (r *Registry) Specs() []llm.ToolSpec {
	if r == nil {
		return nil
	}
	specs := make([]llm.ToolSpec, 0, len(r.tools))
	for _, t := range r.tools {
		specs = append(specs, t.Spec())
	}
	return specs
}

// Execute runs a tool call. Failures are reported to the model inside the
// result rather than aborting the generation.
func (r *Registry) Execute(ctx context.Context, call llm.ToolCall) llm.ToolResult {
	result := llm.ToolResult{CallID: call.ID, Name: call.Name}

	t, ok := r.byName[call.Name]
	if !ok {
		result.Output = map[string]any{"error": fmt.Sprintf("unknown tool %q", call.Name)}
		return result
	}

	out, err := t.Execute(ctx, call.Args)
	if err != nil {
		logger.FromContext(ctx).Warn("Tool call failed", "tool", call.Name, "error", err)
		result.Output = map[string]any{"error": err.Error()}
		return result
	}
	result.Output = out
	return result
}
