package openaichat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/invopop/jsonschema"
	openai "github.com/openai/openai-go/v2"

	"shop_assistant_backend/platform/apperr"
)

// JSONSchemaFormat reflects T into a strict response format.
func JSONSchemaFormat[T any](name, description string) openai.ChatCompletionNewParamsResponseFormatUnion {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)

	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
			JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:        name,
				Description: openai.String(description),
				Schema:      schema,
				Strict:      openai.Bool(true),
			},
		},
	}
}

// StructuredRequest is a single system+user exchange whose answer must match T.
type StructuredRequest struct {
	Model       string
	System      string
	User        string
	Temperature *float64
}

// CompleteJSON sends req with a strict schema for T and decodes the reply.
func CompleteJSON[T any](ctx context.Context, client openai.Client, format openai.ChatCompletionNewParamsResponseFormatUnion, req StructuredRequest) (T, error) {
	var out T

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(req.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
		ResponseFormat: format,
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}

	completion, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return out, apperr.Upstream("structured completion failed", err).WithOp("openaichat.CompleteJSON")
	}
	if len(completion.Choices) == 0 {
		return out, errors.New("openaichat: empty choices")
	}
	if refusal := completion.Choices[0].Message.Refusal; refusal != "" {
		return out, fmt.Errorf("openaichat: model refused: %s", refusal)
	}
	if err := json.Unmarshal([]byte(completion.Choices[0].Message.Content), &out); err != nil {
		return out, fmt.Errorf("openaichat: decode structured reply: %w", err)
	}
	return out, nil
}
