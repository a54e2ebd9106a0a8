package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"shop_assistant_backend/internal/assistant/domain"
)

// ErrNotProductList is reported for catalog results that are valid JSON but not an array.
var ErrNotProductList = errors.New("catalog result is not a JSON array")

// Extract turns a run transcript into the chat answer using the default
// catalog server label. The second value lists the catalog results that
// were skipped.
func Extract(result *domain.RunResult) (domain.AgentResponse, []error) {
	return ExtractWithPrefix(result, domain.DefaultCatalogServer)
}

// ExtractWithPrefix is Extract for tool messages named with catalogPrefix.
//
// The answer is the first output_text block (or the plain text) of the last
// assistant message that has content. Products are every element of every
// catalog tool message, in transcript order, without deduplication.
func ExtractWithPrefix(result *domain.RunResult, catalogPrefix string) (domain.AgentResponse, []error) {
	if result == nil || len(result.Output) == 0 {
		return domain.NewAgentResponse(domain.NoResponseAnswer, nil), nil
	}

	answer := selectAnswer(result.Output)

	var (
		products []domain.Product
		skipped  []error
	)
	for i, item := range result.Output {
		msg, ok := item.(domain.ToolMessage)
		if !ok || !strings.HasPrefix(msg.Name, catalogPrefix) {
			continue
		}
		elements, err := parseProducts(msg.Content)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("output[%d] %s: %w", i, msg.Name, err))
			continue
		}
		products = append(products, elements...)
	}

	return domain.NewAgentResponse(answer, products), skipped
}

func selectAnswer(items []domain.OutputItem) string {
	for i := len(items) - 1; i >= 0; i-- {
		msg, ok := items[i].(domain.AssistantMessage)
		if !ok || msg.Content.IsEmpty() {
			continue
		}
		if !msg.Content.IsBlocks() {
			return msg.Content.Text
		}
		for _, block := range msg.Content.Blocks {
			if block.Type == domain.BlockOutputText {
				if block.Text == "" {
					return domain.NoResponseAnswer
				}
				return block.Text
			}
		}
		return domain.NoResponseAnswer
	}
	return domain.NoResponseAnswer
}

// parseProducts returns the elements of a JSON array payload.
func parseProducts(content string) ([]domain.Product, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(content), &elements); err != nil {
		if json.Valid([]byte(content)) {
			return nil, ErrNotProductList
		}
		return nil, fmt.Errorf("parse catalog result: %w", err)
	}
	if elements == nil {
		// null decodes without error.
		return nil, ErrNotProductList
	}
	products := make([]domain.Product, 0, len(elements))
	for _, element := range elements {
		products = append(products, element)
	}
	return products, nil
}
