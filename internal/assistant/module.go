// Package assistant provides the shopping assistant bounded context module.
package assistant

import (
	"fmt"

	"shop_assistant_backend/internal/assistant/agent"
	"shop_assistant_backend/internal/assistant/domain"
	"shop_assistant_backend/internal/assistant/handler"
	"shop_assistant_backend/internal/assistant/service"
	apphttp "shop_assistant_backend/internal/http"
	"shop_assistant_backend/platform/ai/openaichat"
	"shop_assistant_backend/platform/config"
	"shop_assistant_backend/platform/logger"
	"shop_assistant_backend/platform/mcp"
	"shop_assistant_backend/platform/validator"
	"shop_assistant_backend/platform/websearch"
)

// Module is the assistant bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	catalog *mcp.Client
}

var _ apphttp.Module = (*Module)(nil)

// NewModule builds the model clients, tools, agent and service.
func NewModule(cfg config.AssistantConfig, val *validator.Validator, log *logger.Logger) (*Module, error) {
	client := openaichat.NewClient(openaichat.ClientConfig{
		APIKey:  cfg.GetOpenAIAPIKey(),
		BaseURL: cfg.GetOpenAIBaseURL(),
	})

	var guard agent.GuardEvaluator
	if cfg.IsGuardrailEnabled() {
		guard = agent.NewModelGuard(client, cfg.GetGuardModel())
	}

	catalog := mcp.NewClient(mcp.Config{
		Endpoint: cfg.GetShopifyMCPURL(),
		Label:    cfg.GetShopifyServerLabel(),
		Timeout:  cfg.GetToolHTTPTimeout(),
	})
	web := websearch.NewClient(websearch.Config{
		BraveAPIKey: cfg.GetBraveSearchAPIKey(),
		Timeout:     cfg.GetToolHTTPTimeout(),
	})

	productAgent, err := agent.NewProductAgent(agent.Config{
		Model:   openaichat.NewModel(client, cfg.GetAgentModel()),
		Catalog: catalog,
		Web:     web,
		Guard:   guard,
		Locale:  domain.Locale{Country: cfg.GetCatalogCountry(), Language: cfg.GetCatalogLanguage()},
		Log:     log,
	})
	if err != nil {
		return nil, fmt.Errorf("assistant: %w", err)
	}

	svc := service.New(productAgent, cfg.GetShopifyServerLabel(), log)
	h := handler.New(svc, val, cfg.GetChatMaxMessageLength(), cfg.GetChatTimeout())

	return &Module{handler: h, catalog: catalog}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "assistant"
}

// Close ends the storefront session.
func (m *Module) Close() error {
	return m.catalog.Close()
}

// RegisterRoutes mounts the chat route.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.API.POST("/chat", ctx.RateLimiter.RateLimit(), m.handler.Chat)
}
