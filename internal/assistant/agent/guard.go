package agent

import (
	"context"
	"fmt"

	openai "github.com/openai/openai-go/v2"

	"shop_assistant_backend/internal/assistant/domain"
	"shop_assistant_backend/platform/ai/openaichat"
)

// GuardEvaluator decides whether a query is too vague to act on.
type GuardEvaluator interface {
	Evaluate(ctx context.Context, query string) (domain.GuardVerdict, error)
}

// ModelGuard asks a language model for a GuardVerdict under a strict schema.
type ModelGuard struct {
	client openai.Client
	model  string
	format openai.ChatCompletionNewParamsResponseFormatUnion
}

var _ GuardEvaluator = (*ModelGuard)(nil)

// NewModelGuard creates a guard that uses the named model.
func NewModelGuard(client openai.Client, model string) *ModelGuard {
	return &ModelGuard{
		client: client,
		model:  model,
		format: openaichat.JSONSchemaFormat[domain.GuardVerdict](guardAgentName, "Whether the shopping query is vague or nonsensical"),
	}
}

// Evaluate returns the model's verdict on query.
func (g *ModelGuard) Evaluate(ctx context.Context, query string) (domain.GuardVerdict, error) {
	temperature := 0.0
	verdict, err := openaichat.CompleteJSON[domain.GuardVerdict](ctx, g.client, g.format, openaichat.StructuredRequest{
		Model:       g.model,
		System:      guardInstruction,
		User:        query,
		Temperature: &temperature,
	})
	if err != nil {
		return domain.GuardVerdict{}, fmt.Errorf("guard evaluation: %w", err)
	}
	return verdict, nil
}
