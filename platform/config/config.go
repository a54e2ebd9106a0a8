// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// ModelConfig provides settings for the language-model provider.
type ModelConfig interface {
	GetOpenAIAPIKey() string
	GetOpenAIBaseURL() string
	GetAgentModel() string
	GetGuardModel() string
	IsGuardrailEnabled() bool
}

// StorefrontConfig provides settings for the hosted catalog (MCP) tool.
type StorefrontConfig interface {
	GetShopifyMCPURL() string
	GetShopifyServerLabel() string
	GetCatalogCountry() string
	GetCatalogLanguage() string
	GetToolHTTPTimeout() time.Duration
}

// WebSearchConfig provides settings for the web search tool.
type WebSearchConfig interface {
	GetBraveSearchAPIKey() string
	GetToolHTTPTimeout() time.Duration
}

// ChatConfig provides settings for the chat endpoint.
type ChatConfig interface {
	GetChatTimeout() time.Duration
	GetChatMaxMessageLength() int
	GetChatRateLimitPerMinute() int
}

// AssistantConfig combines everything the assistant module needs.
type AssistantConfig interface {
	ModelConfig
	StorefrontConfig
	WebSearchConfig
	ChatConfig
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                    string
	HTTPAddr               string
	CORSAllowAll           bool
	CORSOrigins            []string
	CORSAllowCreds         bool
	OpenAIAPIKey           string
	OpenAIBaseURL          string
	AgentModel             string
	GuardModel             string
	GuardrailEnabled       bool
	ShopifyMCPURL          string
	ShopifyServerLabel     string
	CatalogCountry         string
	CatalogLanguage        string
	BraveSearchAPIKey      string
	ToolHTTPTimeout        time.Duration
	ChatTimeout            time.Duration
	ChatMaxMessageLength   int
	ChatRateLimitPerMinute int
}

// =============================================================================
// Interface Implementations
// =============================================================================

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// ModelConfig implementation
func (c *Config) GetOpenAIAPIKey() string  { return c.OpenAIAPIKey }
func (c *Config) GetOpenAIBaseURL() string { return c.OpenAIBaseURL }
func (c *Config) GetAgentModel() string    { return c.AgentModel }
func (c *Config) GetGuardModel() string    { return c.GuardModel }
func (c *Config) IsGuardrailEnabled() bool { return c.GuardrailEnabled }

// StorefrontConfig implementation
func (c *Config) GetShopifyMCPURL() string          { return c.ShopifyMCPURL }
func (c *Config) GetShopifyServerLabel() string     { return c.ShopifyServerLabel }
func (c *Config) GetCatalogCountry() string         { return c.CatalogCountry }
func (c *Config) GetCatalogLanguage() string        { return c.CatalogLanguage }
func (c *Config) GetToolHTTPTimeout() time.Duration { return c.ToolHTTPTimeout }

// WebSearchConfig implementation
func (c *Config) GetBraveSearchAPIKey() string { return c.BraveSearchAPIKey }

// ChatConfig implementation
func (c *Config) GetChatTimeout() time.Duration { return c.ChatTimeout }
func (c *Config) GetChatMaxMessageLength() int  { return c.ChatMaxMessageLength }
func (c *Config) GetChatRateLimitPerMinute() int {
	return c.ChatRateLimitPerMinute
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	agentModel := getEnv("AGENT_MODEL", "gpt-4.1-mini")

	toolHTTPTimeout, err := parseDuration("TOOL_HTTP_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	chatTimeout, err := parseDuration("CHAT_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	chatMaxMessageLength, err := parseInt("CHAT_MAX_MESSAGE_LENGTH", "2000")
	if err != nil {
		return nil, err
	}
	chatRateLimit, err := parseInt("CHAT_RATE_LIMIT_PER_MINUTE", "30")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Env:                    getEnv("APP_ENV", "development"),
		HTTPAddr:               getEnv("HTTP_ADDR", ":8080"),
		CORSAllowAll:           corsAllowAll,
		CORSOrigins:            corsOrigins,
		CORSAllowCreds:         strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),
		OpenAIAPIKey:           getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:          getEnv("OPENAI_BASE_URL", ""),
		AgentModel:             agentModel,
		GuardModel:             getEnv("GUARD_MODEL", agentModel),
		GuardrailEnabled:       strings.EqualFold(getEnv("GUARDRAIL_ENABLED", "true"), "true"),
		ShopifyMCPURL:          getEnv("SHOPIFY_MCP_URL", "https://testecomchatbot.myshopify.com/api/mcp"),
		ShopifyServerLabel:     getEnv("SHOPIFY_SERVER_LABEL", "Shopify_Storefront_Tools"),
		CatalogCountry:         getEnv("CATALOG_COUNTRY", "US"),
		CatalogLanguage:        getEnv("CATALOG_LANGUAGE", "EN"),
		BraveSearchAPIKey:      getEnv("BRAVE_SEARCH_API_KEY", ""),
		ToolHTTPTimeout:        toolHTTPTimeout,
		ChatTimeout:            chatTimeout,
		ChatMaxMessageLength:   chatMaxMessageLength,
		ChatRateLimitPerMinute: chatRateLimit,
	}

	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if cfg.ShopifyMCPURL == "" {
		return nil, fmt.Errorf("SHOPIFY_MCP_URL is required")
	}
	if cfg.ChatTimeout <= 0 {
		return nil, fmt.Errorf("CHAT_TIMEOUT must be a positive duration")
	}
	if cfg.ToolHTTPTimeout <= 0 {
		return nil, fmt.Errorf("TOOL_HTTP_TIMEOUT must be a positive duration")
	}
	// Zero turns rate limiting off.
	if cfg.ChatRateLimitPerMinute < 0 {
		return nil, fmt.Errorf("CHAT_RATE_LIMIT_PER_MINUTE must not be negative")
	}
	if cfg.ChatMaxMessageLength <= 0 {
		return nil, fmt.Errorf("CHAT_MAX_MESSAGE_LENGTH must be positive")
	}
	if !cfg.CORSAllowAll && len(cfg.CORSOrigins) == 0 {
		return nil, fmt.Errorf("CORS_ORIGINS must list at least one origin unless CORS_ALLOW_ALL is true")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(key, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return d, nil
}

func parseInt(key, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(key, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, value, err)
	}
	return n, nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
