package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"shop_assistant_backend/internal/assistant/transport"
	"shop_assistant_backend/platform/apperr"
	"shop_assistant_backend/platform/httpkit"
	"shop_assistant_backend/platform/sanitize"
	"shop_assistant_backend/platform/validator"
)

const msgMessageRequired = "Message is required"

// ChatService answers a single query.
type ChatService interface {
	RunAgent(ctx context.Context, query string) transport.ChatResponse
}

// Handler handles HTTP requests for the assistant.
type Handler struct {
	svc       ChatService
	val       *validator.Validator
	maxLength int
	timeout   time.Duration
}

// New creates a new assistant handler. maxLength is counted in runes.
func New(svc ChatService, val *validator.Validator, maxLength int, timeout time.Duration) *Handler {
	return &Handler{svc: svc, val: val, maxLength: maxLength, timeout: timeout}
}

// Chat answers one shopping query.
// POST /api/chat
func (h *Handler) Chat(c *gin.Context) {
	var req transport.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgMessageRequired, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgMessageRequired, nil)
		return
	}

	query := sanitize.Text(req.Message)
	if query == "" {
		httpkit.Error(c, http.StatusBadRequest, msgMessageRequired, nil)
		return
	}
	if h.maxLength > 0 && utf8.RuneCountInString(query) > h.maxLength {
		httpkit.HandleError(c, apperr.Validation(fmt.Sprintf("Message must be at most %d characters", h.maxLength)))
		return
	}

	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	httpkit.OK(c, h.svc.RunAgent(ctx, query))
}
