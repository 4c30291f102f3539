package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/mpellerin/tally/pkg/models"
)

// OpenAIConfig contains configuration for the OpenAI provider.
type OpenAIConfig struct {
	// Model is the chat model to use (e.g. openai.ChatModelGPT4o).
	Model string
	// APIKey is the OpenAI API key. If empty, uses OPENAI_API_KEY env var.
	APIKey string
}

// OpenAIProvider generates completions through the OpenAI chat API.
type OpenAIProvider struct {
	client  *openai.Client
	model   string
	tracker *TokenTracker
}

// NewOpenAIProvider creates an OpenAI-backed provider.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}

	model := cfg.Model
	if model == "" {
		model = openai.ChatModelGPT4o
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIProvider{
		client:  &client,
		model:   model,
		tracker: NewTokenTracker(),
	}, nil
}

// Tracker returns the token tracker for this provider.
func (p *OpenAIProvider) Tracker() *TokenTracker {
	return p.tracker
}

// Complete implements Provider.
func (p *OpenAIProvider) Complete(ctx context.Context, req Request) (*Completion, error) {
	resp, err := p.call(ctx, req, nil)
	if err != nil {
		return nil, err
	}

	completion := &Completion{}
	if len(resp.Choices) > 0 {
		msg := resp.Choices[0].Message
		completion.Text = msg.Content
		for _, tc := range msg.ToolCalls {
			completion.ToolCalls = append(completion.ToolCalls, models.ToolCall{
				ID:   tc.ID,
				Name: tc.Function.Name,
				Args: json.RawMessage(tc.Function.Arguments),
			})
		}
	}
	return completion, nil
}

// CompleteStructured implements Provider.
func (p *OpenAIProvider) CompleteStructured(ctx context.Context, req Request, tool ToolDef) (json.RawMessage, error) {
	req.Tools = []ToolDef{tool}
	choice := &openai.ChatCompletionToolChoiceOptionUnionParam{
		OfChatCompletionNamedToolChoice: &openai.ChatCompletionNamedToolChoiceParam{
			Function: openai.ChatCompletionNamedToolChoiceFunctionParam{Name: tool.Name},
		},
	}
	resp, err := p.call(ctx, req, choice)
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) > 0 {
		for _, tc := range resp.Choices[0].Message.ToolCalls {
			if tc.Function.Name == tool.Name {
				return json.RawMessage(tc.Function.Arguments), nil
			}
		}
	}
	return nil, fmt.Errorf("model produced no %s invocation", tool.Name)
}

func (p *OpenAIProvider) call(ctx context.Context, req Request, choice *openai.ChatCompletionToolChoiceOptionUnionParam) (*openai.ChatCompletion, error) {
	params := openai.ChatCompletionNewParams{
		Model:    p.model,
		Messages: convertOpenAIMessages(req.System, req.Messages),
		Tools:    convertOpenAITools(req.Tools),
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}
	if choice != nil {
		params.ToolChoice = *choice
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("API call failed: %w", err)
	}

	p.tracker.Add(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	return resp, nil
}

func convertOpenAIMessages(system string, msgs []models.Message) []openai.ChatCompletionMessageParamUnion {
	var out []openai.ChatCompletionMessageParamUnion
	if system != "" {
		out = append(out, openai.SystemMessage(system))
	}

	for _, m := range msgs {
		switch m.Role {
		case models.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case models.RoleHuman:
			out = append(out, openai.UserMessage(m.Content))
		case models.RoleAssistant:
			if !m.HasToolCalls() {
				out = append(out, openai.AssistantMessage(m.Content))
				continue
			}
			assistant := openai.ChatCompletionAssistantMessageParam{}
			if m.Content != "" {
				assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: openai.String(m.Content),
				}
			}
			for _, tc := range m.ToolCalls {
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: tc.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: string(tc.Args),
					},
				})
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		case models.RoleTool:
			out = append(out, openai.ToolMessage(m.Content, m.ToolCallID))
		}
	}
	return out
}

func convertOpenAITools(tools []ToolDef) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, tool := range tools {
		out = append(out, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: openai.String(tool.Description),
				Parameters: openai.FunctionParameters{
					"type":       "object",
					"properties": tool.Properties,
					"required":   tool.Required,
				},
			},
		})
	}
	return out
}

var _ Provider = (*OpenAIProvider)(nil)
