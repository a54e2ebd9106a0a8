// Package agent runs shopping queries through a query guard and a tool-using
// language model agent.
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	adkagent "google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/adk/tool"
	"google.golang.org/genai"

	"shop_assistant_backend/internal/assistant/domain"
	"shop_assistant_backend/platform/logger"
)

const (
	appName = "shop_assistant"
	userID  = "shopper"
)

// Config wires the product agent.
type Config struct {
	Model   model.LLM
	Catalog CatalogSearcher
	Web     WebSearcher
	// Guard screens queries before the model runs. Nil disables it.
	Guard  GuardEvaluator
	Locale domain.Locale
	Log    *logger.Logger
}

// ProductAgent answers one shopping query per Run. It is built once and is
// safe for concurrent use; every run gets its own session.
type ProductAgent struct {
	runner         *runner.Runner
	sessionService session.Service
	guard          GuardEvaluator
	labels         map[string]string
	log            *logger.Logger
}

// NewProductAgent builds the ADK agent with the catalog and web search tools.
func NewProductAgent(cfg Config) (*ProductAgent, error) {
	if cfg.Model == nil {
		return nil, errors.New("agent: model is required")
	}
	if cfg.Catalog == nil || cfg.Web == nil {
		return nil, errors.New("agent: catalog and web search clients are required")
	}
	if cfg.Locale == (domain.Locale{}) {
		cfg.Locale = domain.DefaultLocale()
	}
	if cfg.Log == nil {
		cfg.Log = logger.Discard()
	}

	label := cfg.Catalog.Label()
	if label == "" {
		label = domain.DefaultCatalogServer
	}

	catalogTool, err := createCatalogTool(cfg.Catalog, cfg.Locale, cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("agent: create %s tool: %w", catalogToolName, err)
	}
	webTool, err := createWebSearchTool(cfg.Web, cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("agent: create %s tool: %w", webSearchToolName, err)
	}

	adkAgent, err := llmagent.New(llmagent.Config{
		Name:        productAgentName,
		Model:       cfg.Model,
		Description: "Shopping assistant that searches the store catalog and the web.",
		Instruction: productInstruction(label, cfg.Locale),
		Tools:       []tool.Tool{webTool, catalogTool},
	})
	if err != nil {
		return nil, fmt.Errorf("agent: create llm agent: %w", err)
	}

	sessionService := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        appName,
		Agent:          adkAgent,
		SessionService: sessionService,
	})
	if err != nil {
		return nil, fmt.Errorf("agent: create runner: %w", err)
	}

	return &ProductAgent{
		runner:         r,
		sessionService: sessionService,
		guard:          cfg.Guard,
		labels:         map[string]string{catalogToolName: label},
		log:            cfg.Log,
	}, nil
}

// Run screens query with the guard and, if it passes, runs the agent once.
// A rejected query is reported as a tripped outcome, not an error.
func (a *ProductAgent) Run(ctx context.Context, query string) (domain.RunOutcome, error) {
	if a.guard != nil {
		verdict, err := a.guard.Evaluate(ctx, query)
		if err != nil {
			return domain.RunOutcome{}, err
		}
		if verdict.IsVagueOrNonsensical {
			return domain.Tripped(verdict), nil
		}
	}

	result, err := a.runAgent(ctx, query)
	if err != nil {
		return domain.RunOutcome{}, err
	}
	return domain.Completed(result), nil
}

func (a *ProductAgent) runAgent(ctx context.Context, query string) (*domain.RunResult, error) {
	sessionID := uuid.New().String()

	_, err := a.sessionService.Create(ctx, &session.CreateRequest{
		AppName:   appName,
		UserID:    userID,
		SessionID: sessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("agent: create session: %w", err)
	}
	defer func() {
		_ = a.sessionService.Delete(context.WithoutCancel(ctx), &session.DeleteRequest{
			AppName:   appName,
			UserID:    userID,
			SessionID: sessionID,
		})
	}()

	userMessage := &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: query}},
	}

	t := newTranscript(a.labels)
	runConfig := adkagent.RunConfig{StreamingMode: adkagent.StreamingModeNone}
	for event, err := range a.runner.Run(ctx, userID, sessionID, userMessage, runConfig) {
		if err != nil {
			return nil, fmt.Errorf("agent: run: %w", err)
		}
		t.add(event)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("agent: run: %w", err)
	}

	return t.result(), nil
}
