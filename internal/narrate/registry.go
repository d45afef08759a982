package narrate

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/sashabaranov/go-openai"
)

// Tool is a function the model may call while narrating.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]interface{} // JSON schema properties
	RequiredParameters() []string
	Execute(ctx context.Context, args map[string]interface{}) (interface{}, error)
}

// ToolCall is one call requested by the model.
type ToolCall struct {
	ID   string                 `json:"id"`
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"arguments"`
}

// ToolResult is the outcome of one call.
type ToolResult struct {
	CallID string      `json:"call_id"`
	Name   string      `json:"name"`
	Result interface{} `json:"result"`
	Error  string      `json:"error,omitempty"`
}

// Registry manages available tools
type Registry struct {
	tools map[string]Tool
	mu    sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool, replacing any tool of the same name.
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = tool
}

func (r *Registry) GetTool(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, exists := r.tools[name]
	return tool, exists
}

// ListTools returns the registered tools ordered by name.
func (r *Registry) ListTools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name() < tools[j].Name() })
	return tools
}

// OpenAITools returns the function specifications sent with every request.
func (r *Registry) OpenAITools() []openai.Tool {
	tools := r.ListTools()
	specs := make([]openai.Tool, len(tools))
	for i, tool := range tools {
		required := tool.RequiredParameters()
		if required == nil {
			required = []string{}
		}
		specs[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name(),
				Description: tool.Description(),
				Parameters: map[string]interface{}{
					"type":       "object",
					"properties": tool.Parameters(),
					"required":   required,
				},
			},
		}
	}
	return specs
}

// Execute runs one call. Failures are reported in the result, never returned,
// so the model can see them.
func (r *Registry) Execute(ctx context.Context, call ToolCall) ToolResult {
	res := ToolResult{CallID: call.ID, Name: call.Name}
	tool, exists := r.GetTool(call.Name)
	if !exists {
		res.Error = fmt.Sprintf("tool '%s' not found", call.Name)
		return res
	}
	result, err := tool.Execute(ctx, call.Args)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Result = result
	return res
}

// Content is the tool message body handed back to the model.
func (tr ToolResult) Content() string {
	if tr.Error != "" {
		return "Error: " + tr.Error
	}
	data, err := json.Marshal(tr.Result)
	if err != nil {
		return fmt.Sprintf("%v", tr.Result)
	}
	return string(data)
}

// ParseToolCall converts a model tool call into a ToolCall.
func ParseToolCall(call openai.ToolCall) (ToolCall, error) {
	tc := ToolCall{ID: call.ID, Name: call.Function.Name, Args: map[string]interface{}{}}
	if call.Function.Arguments == "" {
		return tc, nil
	}
	if err := json.Unmarshal([]byte(call.Function.Arguments), &tc.Args); err != nil {
		return tc, fmt.Errorf("parse arguments for %s: %w", call.Function.Name, err)
	}
	return tc, nil
}
