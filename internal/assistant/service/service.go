// Package service runs the shopping assistant and maps every outcome to a
// user-safe answer.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"shop_assistant_backend/internal/assistant/domain"
	"shop_assistant_backend/platform/logger"
)

// Agent runs one query through the guard and the tool-using model.
type Agent interface {
	Run(ctx context.Context, query string) (domain.RunOutcome, error)
}

// Service provides the chat use case.
type Service struct {
	agent         Agent
	catalogPrefix string
	log           *logger.Logger
}

// New creates a new assistant service. An empty catalogPrefix selects the
// default storefront label.
func New(agent Agent, catalogPrefix string, log *logger.Logger) *Service {
	if catalogPrefix == "" {
		catalogPrefix = domain.DefaultCatalogServer
	}
	return &Service{agent: agent, catalogPrefix: catalogPrefix, log: log}
}

// RunAgent answers query. It never fails: guard rejections become a
// clarification request and every error becomes an apology.
func (s *Service) RunAgent(ctx context.Context, query string) (resp domain.AgentResponse) {
	start := time.Now()
	log := s.log.WithContext(ctx)

	defer func() {
		if recovered := recover(); recovered != nil {
			log.Error("agent run panicked", "error", fmt.Sprint(recovered))
			resp = domain.NewAgentResponse(domain.ApologyAnswer, nil)
			log.AgentRun("error", 0, time.Since(start))
		}
	}()

	outcome, err := s.agent.Run(ctx, query)
	if err != nil {
		log.Error("agent run failed", "error", err)
		log.AgentRun("error", 0, time.Since(start))
		return domain.NewAgentResponse(domain.ApologyAnswer, nil)
	}

	if outcome.Tripped != nil {
		log.Info("query rejected by guardrail", "reasoning", outcome.Tripped.Verdict.Reasoning)
		log.AgentRun("guardrail_tripped", 0, time.Since(start))
		return domain.NewAgentResponse(domain.ClarificationAnswer, nil)
	}

	resp, skipped := ExtractWithPrefix(outcome.Result, s.catalogPrefix)
	for _, skip := range skipped {
		log.Warn("skipped catalog result", slog.String("error", skip.Error()))
	}
	log.AgentRun("completed", len(resp.Products), time.Since(start))
	return resp
}
