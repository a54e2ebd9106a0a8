// Package transport holds the chat endpoint's request and response shapes.
package transport

import "shop_assistant_backend/internal/assistant/domain"

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message" validate:"required,notblank"`
}

// ChatResponse is the body of a successful chat reply.
type ChatResponse = domain.AgentResponse
