package agent

import (
	"context"
	"errors"
	"iter"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"shop_assistant_backend/internal/assistant/domain"
	"shop_assistant_backend/platform/logger"
)

// scriptedModel calls the catalog once and then answers with text.
type scriptedModel struct {
	mu     sync.Mutex
	calls  int
	answer string
	err    error
}

func (m *scriptedModel) Name() string { return "scripted" }

func (m *scriptedModel) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		m.mu.Lock()
		m.calls++
		m.mu.Unlock()

		if m.err != nil {
			yield(nil, m.err)
			return
		}
		if !hasFunctionResponse(req) {
			yield(&model.LLMResponse{Content: &genai.Content{
				Role: genai.RoleModel,
				Parts: []*genai.Part{{FunctionCall: &genai.FunctionCall{
					ID:   "call_1",
					Name: catalogToolName,
					Args: map[string]any{"query": "red running shoes under $50"},
				}}},
			}}, nil)
			return
		}
		yield(&model.LLMResponse{Content: genai.NewContentFromText(m.answer, genai.RoleModel)}, nil)
	}
}

func (m *scriptedModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func hasFunctionResponse(req *model.LLMRequest) bool {
	for _, content := range req.Contents {
		if content == nil {
			continue
		}
		for _, part := range content.Parts {
			if part != nil && part.FunctionResponse != nil {
				return true
			}
		}
	}
	return false
}

type fakeGuard struct {
	verdict domain.GuardVerdict
	err     error
	queries []string
}

func (g *fakeGuard) Evaluate(ctx context.Context, query string) (domain.GuardVerdict, error) {
	g.queries = append(g.queries, query)
	return g.verdict, g.err
}

func newTestAgent(t *testing.T, m model.LLM, catalog *fakeCatalog, guard GuardEvaluator) *ProductAgent {
	t.Helper()
	cfg := Config{
		Model:   m,
		Catalog: catalog,
		Web:     &fakeWeb{},
		Log:     logger.Discard(),
	}
	if guard != nil {
		cfg.Guard = guard
	}
	a, err := NewProductAgent(cfg)
	require.NoError(t, err)
	return a
}

func TestRunProducesCatalogTranscript(t *testing.T) {
	m := &scriptedModel{answer: "The Trail Runner is red and costs $45."}
	catalog := &fakeCatalog{
		label: domain.DefaultCatalogServer,
		text:  `{"products":[{"id":"p1","title":"Trail Runner","priceRange":{"minVariantPrice":{"amount":"45.00","currencyCode":"USD"}}}]}`,
	}
	guard := &fakeGuard{verdict: domain.GuardVerdict{Reasoning: "specific"}}
	a := newTestAgent(t, m, catalog, guard)

	outcome, err := a.Run(context.Background(), "red running shoes under $50")

	require.NoError(t, err)
	require.Nil(t, outcome.Tripped)
	require.NotNil(t, outcome.Result)
	assert.Equal(t, []string{"red running shoes under $50"}, guard.queries)
	require.Len(t, catalog.calls, 1)
	assert.JSONEq(t, `{"country":"US","language":"EN"}`, catalog.calls[0]["context"].(string))

	var tool *domain.ToolMessage
	var answer *domain.AssistantMessage
	for _, item := range outcome.Result.Output {
		switch v := item.(type) {
		case domain.ToolMessage:
			tool = &v
		case domain.AssistantMessage:
			answer = &v
		}
	}
	require.NotNil(t, tool)
	assert.Equal(t, "Shopify_Storefront_Tools.search_shop_catalog", tool.Name)
	assert.JSONEq(t, `[{"id":"p1","title":"Trail Runner","priceRange":{"minVariantPrice":{"amount":"45.00","currencyCode":"USD"}}}]`, tool.Content)
	require.NotNil(t, answer)
	assert.Equal(t, "The Trail Runner is red and costs $45.", answer.Content.Blocks[0].Text)
}

func TestRunToolFailureIsRecordedNotRaised(t *testing.T) {
	m := &scriptedModel{answer: "The catalog is unavailable right now."}
	catalog := &fakeCatalog{label: domain.DefaultCatalogServer, err: errors.New("connection refused")}
	a := newTestAgent(t, m, catalog, nil)

	outcome, err := a.Run(context.Background(), "red running shoes")

	require.NoError(t, err)
	var found bool
	for _, item := range outcome.Result.Output {
		if msg, ok := item.(domain.ToolMessage); ok {
			found = true
			assert.JSONEq(t, `{"error":"connection refused"}`, msg.Content)
		}
	}
	assert.True(t, found)
}

func TestRunGuardTripSkipsModel(t *testing.T) {
	m := &scriptedModel{answer: "unused"}
	catalog := &fakeCatalog{label: domain.DefaultCatalogServer}
	guard := &fakeGuard{verdict: domain.GuardVerdict{IsVagueOrNonsensical: true, Reasoning: "keyboard mash"}}
	a := newTestAgent(t, m, catalog, guard)

	outcome, err := a.Run(context.Background(), "asdfgh")

	require.NoError(t, err)
	require.NotNil(t, outcome.Tripped)
	assert.Equal(t, "keyboard mash", outcome.Tripped.Verdict.Reasoning)
	assert.Nil(t, outcome.Result)
	assert.Zero(t, m.callCount())
	assert.Empty(t, catalog.calls)
}

func TestRunGuardErrorPropagates(t *testing.T) {
	m := &scriptedModel{}
	guardErr := errors.New("guard model down")
	a := newTestAgent(t, m, &fakeCatalog{}, &fakeGuard{err: guardErr})

	_, err := a.Run(context.Background(), "shoes")

	assert.ErrorIs(t, err, guardErr)
	assert.Zero(t, m.callCount())
}

func TestRunModelErrorPropagates(t *testing.T) {
	modelErr := errors.New("provider unavailable")
	a := newTestAgent(t, &scriptedModel{err: modelErr}, &fakeCatalog{}, nil)

	_, err := a.Run(context.Background(), "shoes")

	assert.ErrorIs(t, err, modelErr)
}

func TestRunCanceledContext(t *testing.T) {
	a := newTestAgent(t, &scriptedModel{answer: "x"}, &fakeCatalog{text: "[]"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Run(ctx, "shoes")

	assert.Error(t, err)
}

func TestNewProductAgentValidatesConfig(t *testing.T) {
	_, err := NewProductAgent(Config{})
	assert.Error(t, err)

	_, err = NewProductAgent(Config{Model: &scriptedModel{}})
	assert.Error(t, err)
}

func TestProductInstructionMentionsToolsAndLocale(t *testing.T) {
	text := productInstruction("My_Store", domain.Locale{Country: "CA", Language: "FR"})

	assert.Contains(t, text, "'My_Store'")
	assert.Contains(t, text, "'search_shop_catalog'")
	assert.Contains(t, text, "'web_search'")
	assert.Contains(t, text, "country CA and language FR")
	assert.NotContains(t, text, "{")
}
