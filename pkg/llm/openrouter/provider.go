package openrouter

import (
	"context"
	"errors"
	"net"
	"net/url"
	"time"

	"ai-agent-be/pkg/llm"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenRouterProvider implements llm.Provider against the OpenRouter
// OpenAI-compatible chat completions API.
type OpenRouterProvider struct {
	client    openai.Client
	modelName string
	timeout   time.Duration
}

// Ensure OpenRouterProvider implements Provider
var _ llm.Provider = &OpenRouterProvider{}

func NewOpenRouterProvider(baseURL, apiKey, modelName string, timeout time.Duration) *OpenRouterProvider {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		// The orchestrator owns retry policy; never retry here.
		option.WithMaxRetries(0),
	)
	return &OpenRouterProvider{
		client:    client,
		modelName: modelName,
		timeout:   timeout,
	}
}

func (p *OpenRouterProvider) Chat(ctx context.Context, history []llm.Message, tools []llm.ToolSchema, opts ...llm.Option) (*llm.Message, error) {
	options := &llm.Options{}
	for _, opt := range opts {
		opt(options)
	}

	model := p.modelName
	if options.Model != "" {
		model = options.Model
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: toUnionMessages(history),
		Tools:    toToolParams(tools),
	}
	if options.Temperature > 0 {
		params.Temperature = openai.Float(options.Temperature)
	}
	if options.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(options.MaxTokens))
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	completion, err := p.client.Chat.Completions.New(callCtx, params)
	if err != nil {
		return nil, classify(err)
	}
	if len(completion.Choices) == 0 {
		return nil, &llm.Error{Kind: llm.KindUpstreamError, Err: errors.New("empty choices in completion")}
	}

	msg := completion.Choices[0].Message
	out := &llm.Message{
		Role:    llm.RoleAssistant,
		Content: msg.Content,
	}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
			Id:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out, nil
}

func toUnionMessages(history []llm.Message) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case llm.RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case llm.RoleTool:
			msgs = append(msgs, openai.ToolMessage(m.Content, m.ToolCallId))
		case llm.RoleAssistant:
			if len(m.ToolCalls) == 0 {
				msgs = append(msgs, openai.AssistantMessage(m.Content))
				continue
			}
			assistant := openai.ChatCompletionAssistantMessageParam{}
			if m.Content != "" {
				assistant.Content.OfString = openai.String(m.Content)
			}
			for _, tc := range m.ToolCalls {
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: tc.Id,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
			msgs = append(msgs, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}
	return msgs
}

func toToolParams(tools []llm.ToolSchema) []openai.ChatCompletionToolParam {
	if len(tools) == 0 {
		return nil
	}
	params := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, t := range tools {
		params = append(params, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  openai.FunctionParameters(t.Parameters),
			},
		})
	}
	return params
}

// classify maps transport and API failures onto the llm error taxonomy.
func classify(err error) *llm.Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &llm.Error{Kind: llm.KindTimedOut, Err: err}
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 429:
			return &llm.Error{Kind: llm.KindRateLimited, Err: err}
		case apiErr.StatusCode >= 400:
			return &llm.Error{Kind: llm.KindUpstreamError, Err: err}
		}
		return &llm.Error{Kind: llm.KindUnexpected, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &llm.Error{Kind: llm.KindTimedOut, Err: err}
		}
		return &llm.Error{Kind: llm.KindUnreachable, Err: err}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &llm.Error{Kind: llm.KindUnreachable, Err: err}
	}

	return &llm.Error{Kind: llm.KindUnexpected, Err: err}
}
