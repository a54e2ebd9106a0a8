// Package openaichat adapts an OpenAI-compatible chat completions API to the
// ADK model.LLM interface.
package openaichat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"shop_assistant_backend/platform/apperr"
)

// ClientConfig configures the shared OpenAI client.
type ClientConfig struct {
	APIKey     string
	BaseURL    string // empty means the public OpenAI endpoint
	MaxRetries int
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewClient builds the OpenAI client shared by every model in the process.
func NewClient(cfg ClientConfig) openai.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	return openai.NewClient(opts...)
}

// Model adapts chat completions to the ADK model.LLM interface.
type Model struct {
	client openai.Client
	name   string
}

// NewModel returns an ADK model backed by the named chat completions model.
func NewModel(client openai.Client, name string) *Model {
	return &Model{client: client, name: name}
}

var _ model.LLM = (*Model)(nil)

func (m *Model) Name() string {
	return m.name
}

// GenerateContent issues one non-streaming completion. Streaming requests are
// answered with a single final response.
func (m *Model) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		resp, err := m.generate(ctx, req)
		yield(resp, err)
	}
}

func (m *Model) generate(ctx context.Context, req *model.LLMRequest) (*model.LLMResponse, error) {
	if req == nil {
		return nil, errors.New("openaichat: nil request")
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(m.name),
		Messages: convertMessages(req),
	}
	if req.Config != nil && req.Config.Temperature != nil {
		params.Temperature = openai.Float(float64(*req.Config.Temperature))
	}
	tools, err := convertTools(req)
	if err != nil {
		return nil, err
	}
	if len(tools) > 0 {
		params.Tools = tools
	}

	completion, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, apperr.Upstream("chat completion failed", err).WithOp("openaichat.GenerateContent")
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("openaichat: empty choices")
	}

	choice := completion.Choices[0].Message
	parts := make([]*genai.Part, 0, 1+len(choice.ToolCalls))
	if strings.TrimSpace(choice.Content) != "" {
		parts = append(parts, genai.NewPartFromText(choice.Content))
	}
	for _, tc := range choice.ToolCalls {
		parts = append(parts, &genai.Part{
			FunctionCall: &genai.FunctionCall{
				ID:   tc.ID,
				Name: tc.Function.Name,
				Args: parseArguments(tc.Function.Arguments),
			},
		})
	}

	return &model.LLMResponse{
		Content: &genai.Content{
			Role:  genai.RoleModel,
			Parts: parts,
		},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     int32(completion.Usage.PromptTokens),
			CandidatesTokenCount: int32(completion.Usage.CompletionTokens),
			TotalTokenCount:      int32(completion.Usage.TotalTokens),
		},
	}, nil
}

func parseArguments(raw string) map[string]any {
	args := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return args
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return map[string]any{"_raw": raw}
	}
	return args
}

func convertMessages(req *model.LLMRequest) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Contents)+1)

	if req.Config != nil && req.Config.SystemInstruction != nil {
		if system := joinText(req.Config.SystemInstruction.Parts); system != "" {
			messages = append(messages, openai.SystemMessage(system))
		}
	}

	for _, content := range req.Contents {
		if content == nil {
			continue
		}
		messages = append(messages, convertContent(content)...)
	}
	return messages
}

func convertContent(content *genai.Content) []openai.ChatCompletionMessageParamUnion {
	var out []openai.ChatCompletionMessageParamUnion
	var toolCalls []openai.ChatCompletionMessageToolCallUnionParam
	var textParts []*genai.Part

	for _, part := range content.Parts {
		switch {
		case part == nil:
		case part.FunctionResponse != nil:
			payload, _ := json.Marshal(part.FunctionResponse.Response)
			out = append(out, openai.ToolMessage(string(payload), part.FunctionResponse.ID))
		case part.FunctionCall != nil:
			args, _ := json.Marshal(part.FunctionCall.Args)
			toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallUnionParam{
				OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
					ID: part.FunctionCall.ID,
					Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
						Name:      part.FunctionCall.Name,
						Arguments: string(args),
					},
				},
			})
		case part.Thought:
			// Reasoning is not replayed to the provider.
		default:
			textParts = append(textParts, part)
		}
	}

	text := joinText(textParts)
	if content.Role != genai.RoleModel {
		if text != "" {
			out = append(out, openai.UserMessage(text))
		}
		return out
	}

	if text == "" && len(toolCalls) == 0 {
		return out
	}
	assistant := openai.ChatCompletionAssistantMessageParam{ToolCalls: toolCalls}
	if text != "" {
		assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{OfString: openai.String(text)}
	}
	return append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
}

func joinText(parts []*genai.Part) string {
	var sb strings.Builder
	for _, part := range parts {
		if part == nil || strings.TrimSpace(part.Text) == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(part.Text)
	}
	return strings.TrimSpace(sb.String())
}

func convertTools(req *model.LLMRequest) ([]openai.ChatCompletionToolUnionParam, error) {
	if req.Config == nil || len(req.Config.Tools) == 0 {
		return nil, nil
	}

	var tools []openai.ChatCompletionToolUnionParam
	for _, gt := range req.Config.Tools {
		if gt == nil {
			continue
		}
		for _, decl := range gt.FunctionDeclarations {
			if decl == nil || decl.Name == "" {
				continue
			}
			params, err := declarationParameters(decl)
			if err != nil {
				return nil, fmt.Errorf("openaichat: tool %s: %w", decl.Name, err)
			}
			def := openai.FunctionDefinitionParam{
				Name:       decl.Name,
				Parameters: params,
			}
			if decl.Description != "" {
				def.Description = openai.String(decl.Description)
			}
			tools = append(tools, openai.ChatCompletionFunctionTool(def))
		}
	}
	return tools, nil
}

// declarationParameters renders a declaration's schema as a plain JSON object.
// genai schemas spell types in upper case, which OpenAI rejects.
func declarationParameters(decl *genai.FunctionDeclaration) (openai.FunctionParameters, error) {
	var source any
	switch {
	case decl.ParametersJsonSchema != nil:
		source = decl.ParametersJsonSchema
	case decl.Parameters != nil:
		source = decl.Parameters
	default:
		return openai.FunctionParameters{"type": "object", "properties": map[string]any{}}, nil
	}

	raw, err := json.Marshal(source)
	if err != nil {
		return nil, err
	}
	params := openai.FunctionParameters{}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, err
	}
	lowerTypes(map[string]any(params))
	return params, nil
}

func lowerTypes(node any) {
	switch v := node.(type) {
	case map[string]any:
		if t, ok := v["type"].(string); ok {
			v["type"] = strings.ToLower(t)
		}
		for _, child := range v {
			lowerTypes(child)
		}
	case []any:
		for _, child := range v {
			lowerTypes(child)
		}
	}
}
