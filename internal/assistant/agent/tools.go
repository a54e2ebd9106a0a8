package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"

	"shop_assistant_backend/internal/assistant/domain"
	"shop_assistant_backend/platform/logger"
	"shop_assistant_backend/platform/mcp"
	"shop_assistant_backend/platform/websearch"
)

const (
	catalogToolName   = "search_shop_catalog"
	webSearchToolName = "web_search"
	webSearchCount    = 5
)

// CatalogSearcher calls tools on the storefront MCP server.
type CatalogSearcher interface {
	CallTool(ctx context.Context, name string, args map[string]any) (*sdk.CallToolResult, error)
	Label() string
}

// WebSearcher runs a public web search.
type WebSearcher interface {
	Search(ctx context.Context, query string, count int) ([]websearch.Result, error)
}

// toolPayload is what every tool hands back to the model. Result holds either
// the tool's JSON output or an {"error": ...} object.
type toolPayload struct {
	Result string `json:"result"`
}

// CatalogSearchInput is the argument of search_shop_catalog.
type CatalogSearchInput struct {
	Query   string `json:"query" jsonschema:"Natural language description of the products to find"`
	Context string `json:"context,omitempty" jsonschema:"Market context of the search. The store's configured country and language are always applied"`
}

// WebSearchInput is the argument of web_search.
type WebSearchInput struct {
	Query string `json:"query" jsonschema:"Search query, for example 'best trail running shoes review'"`
}

func errorPayload(err error) toolPayload {
	b, _ := json.Marshal(map[string]string{"error": err.Error()})
	return toolPayload{Result: string(b)}
}

func createCatalogTool(catalog CatalogSearcher, locale domain.Locale, log *logger.Logger) (tool.Tool, error) {
	return functiontool.New(functiontool.Config{
		Name:        catalogToolName,
		Description: "Search the store's product catalog. Returns a JSON array of products with title, description, price range, image and availability.",
	}, func(ctx tool.Context, input CatalogSearchInput) (toolPayload, error) {
		start := time.Now()
		payload, err := searchCatalog(ctx, catalog, locale, input)
		log.WithContext(ctx).ToolCall(catalog.Label()+"."+catalogToolName, time.Since(start), err)
		if err != nil {
			return errorPayload(err), nil
		}
		return payload, nil
	})
}

func searchCatalog(ctx context.Context, catalog CatalogSearcher, locale domain.Locale, input CatalogSearchInput) (toolPayload, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return toolPayload{}, errors.New("query is required")
	}

	// The storefront is always searched in the configured market, whatever
	// context the model passed.
	searchContext, err := json.Marshal(locale)
	if err != nil {
		return toolPayload{}, fmt.Errorf("encode locale: %w", err)
	}

	result, err := catalog.CallTool(ctx, catalogToolName, map[string]any{
		"query":   query,
		"context": string(searchContext),
	})
	if err != nil {
		return toolPayload{}, err
	}
	return toolPayload{Result: normalizeProducts(mcp.Text(result))}, nil
}

// normalizeProducts reduces a catalog reply to a JSON product array when it
// can: arrays pass through and {"products": [...]} is unwrapped. Anything
// else is returned unchanged.
func normalizeProducts(text string) string {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "[") {
		return trimmed
	}

	var envelope struct {
		Products json.RawMessage `json:"products"`
	}
	if err := json.Unmarshal([]byte(trimmed), &envelope); err != nil {
		return text
	}
	products := strings.TrimSpace(string(envelope.Products))
	if !strings.HasPrefix(products, "[") {
		return text
	}
	return products
}

func createWebSearchTool(web WebSearcher, log *logger.Logger) (tool.Tool, error) {
	return functiontool.New(functiontool.Config{
		Name:        webSearchToolName,
		Description: "Search the web for external product reviews or comparisons. Returns the top results with title, url and snippet. Never use it to find products to sell.",
	}, func(ctx tool.Context, input WebSearchInput) (toolPayload, error) {
		start := time.Now()
		payload, err := searchWeb(ctx, web, input)
		log.WithContext(ctx).ToolCall(webSearchToolName, time.Since(start), err)
		if err != nil {
			return errorPayload(err), nil
		}
		return payload, nil
	})
}

func searchWeb(ctx context.Context, web WebSearcher, input WebSearchInput) (toolPayload, error) {
	results, err := web.Search(ctx, input.Query, webSearchCount)
	if err != nil {
		return toolPayload{}, err
	}
	b, err := json.Marshal(map[string]any{"results": results})
	if err != nil {
		return toolPayload{}, fmt.Errorf("encode search results: %w", err)
	}
	return toolPayload{Result: string(b)}, nil
}
