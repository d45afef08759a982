// Package narrate asks a chat model to describe how an image emerged across
// a sequence, letting it query the analysis through tool calls.
package narrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"

	"github.com/Rorical/stepscope/internal/analysis"
	"github.com/Rorical/stepscope/internal/config"
	"github.com/Rorical/stepscope/internal/models"
)

// MaxRounds bounds the number of completion requests per narration.
const MaxRounds = 5

var (
	ErrNotConfigured = errors.New("narration profile not configured")
	ErrMaxRounds     = errors.New("maximum tool call rounds reached")
	ErrNoResponse    = errors.New("model returned no choices")
)

const systemPrompt = `You explain captured diffusion runs. A sequence is an ordered stack of
intermediate frames, from pure noise at step 0 to the final image. Use the tools
to inspect the metadata, the per-step change series and the critical steps before
answering. Describe in a few short markdown paragraphs when the composition
appears, when detail is refined, and which steps changed the most. The latent
figures are a downsampled proxy from rendered frames, not the model's latents.`

// Client is the part of the OpenAI client the narrator needs.
type Client interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// NewClient builds an OpenAI client from the active profile.
func NewClient(cfg *config.Config) (*openai.Client, error) {
	if !cfg.IsValid() {
		return nil, ErrNotConfigured
	}
	clientConfig := openai.DefaultConfig(cfg.GetAPIKey())
	if cfg.GetBaseURL() != "" {
		clientConfig.BaseURL = cfg.GetBaseURL()
	}
	return openai.NewClientWithConfig(clientConfig), nil
}

// Narrator runs one tool-calling conversation per sequence.
type Narrator struct {
	client    Client
	model     string
	logger    *slog.Logger
	maxRounds int
}

func New(client Client, model string, logger *slog.Logger) *Narrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Narrator{client: client, model: model, logger: logger, maxRounds: MaxRounds}
}

// Narrate returns the model's description of seq. seq must be fully resolved.
func (n *Narrator) Narrate(ctx context.Context, seq *models.Sequence, an *analysis.Analyzer) (string, error) {
	registry := NewRegistry()
	RegisterAnalysisTools(registry, seq, an)
	tools := registry.OpenAITools()

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Describe how the image of sequence %q emerges over its %d steps.", seq.ID, seq.Len())},
	}

	for round := 0; round < n.maxRounds; round++ {
		req := openai.ChatCompletionRequest{
			Model:    n.model,
			Messages: messages,
			Tools:    tools,
		}
		// The last round must be answered in text.
		if round == n.maxRounds-1 {
			req.ToolChoice = "none"
		}
		resp, err := n.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", fmt.Errorf("OpenAI API error: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", ErrNoResponse
		}

		message := resp.Choices[0].Message
		if len(message.ToolCalls) == 0 {
			return message.Content, nil
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:      openai.ChatMessageRoleAssistant,
			Content:   message.Content,
			ToolCalls: message.ToolCalls,
		})

		for _, call := range message.ToolCalls {
			result := ToolResult{CallID: call.ID, Name: call.Function.Name}
			if tc, err := ParseToolCall(call); err != nil {
				result.Error = err.Error()
			} else {
				result = registry.Execute(ctx, tc)
			}
			n.logger.Info("narration tool call", "round", round, "tool", call.Function.Name, "error", result.Error)
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    result.Content(),
				Name:       call.Function.Name,
				ToolCallID: call.ID,
			})
		}
	}
	return "", ErrMaxRounds
}
