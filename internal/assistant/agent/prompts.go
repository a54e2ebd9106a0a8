package agent

import (
	"fmt"

	"shop_assistant_backend/internal/assistant/domain"
)

const (
	productAgentName = "E_commerce_Product_Agent"
	guardAgentName   = "QueryGuardrailAgent"

	guardInstruction = `Check if the user query is vague (e.g., "something cool") or nonsensical (e.g., "asdfgh").`
)

// productInstruction renders the shopping persona. It avoids curly braces so
// the runtime does not read parts of it as session state placeholders.
func productInstruction(serverLabel string, locale domain.Locale) string {
	return fmt.Sprintf(`You are a friendly and helpful e-commerce assistant.
- Your primary goal is to help users find products using the tools from '%[1]s'. The main tool for this is '%[2]s'.
- IMPORTANT: When calling any tool from '%[1]s' (like '%[2]s'), you MUST provide a 'context' argument. For now, always use country %[3]s and language %[4]s as the context.
- If a query is ambiguous (e.g., "something cool"), you MUST ask clarifying questions.
- Use '%[5]s' to find external product reviews or comparisons if asked.
- Always respond in the user's language.
- Keep responses brief and to the point (2-3 sentences max).
- Do not make up information; only use data from the provided tools.`,
		serverLabel, catalogToolName, locale.Country, locale.Language, webSearchToolName)
}
