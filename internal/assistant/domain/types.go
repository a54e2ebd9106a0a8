// Package domain holds the request-scoped data of the shopping assistant.
package domain

import (
	"encoding/json"
)

const (
	// NoResponseAnswer is returned when a run produced no usable assistant text.
	NoResponseAnswer = "Sorry, I am unable to provide a response."
	// ClarificationAnswer is returned when the query guard rejects a query.
	ClarificationAnswer = "Your query is a bit too vague. Could you please provide more details about what you are looking for?"
	// ApologyAnswer is returned for any failure of the run itself.
	ApologyAnswer = "An unexpected error occurred. Please try again."

	// DefaultCatalogServer labels the storefront tool server. Tool messages
	// whose name starts with it carry product lists.
	DefaultCatalogServer = "Shopify_Storefront_Tools"
)

// Product is a catalog item exactly as the storefront tool returned it.
// Typical fields are id, handle, title, description, productType, vendor,
// tags, priceRange, featuredImage, availableForSale and inventory.
type Product = json.RawMessage

// AgentResponse is what the chat endpoint returns.
type AgentResponse struct {
	Answer   string    `json:"answer"`
	Products []Product `json:"products"`
}

// NewAgentResponse builds a response with a non-nil product list.
func NewAgentResponse(answer string, products []Product) AgentResponse {
	if products == nil {
		products = []Product{}
	}
	return AgentResponse{Answer: answer, Products: products}
}

// MarshalJSON always renders products as an array.
func (r AgentResponse) MarshalJSON() ([]byte, error) {
	type wire AgentResponse
	if r.Products == nil {
		r.Products = []Product{}
	}
	return json.Marshal(wire(r))
}

// GuardVerdict is the structured answer of the query guard.
type GuardVerdict struct {
	IsVagueOrNonsensical bool   `json:"is_vague_or_nonsensical" jsonschema:"description=True when the query is too vague or nonsensical to search for."`
	Reasoning            string `json:"reasoning" jsonschema:"description=One sentence explaining the decision."`
}

// GuardrailTripped reports that the guard rejected the query before the agent ran.
type GuardrailTripped struct {
	Verdict GuardVerdict
}

// RunOutcome is the result of one agent invocation: either a completed run
// or a tripped guardrail.
type RunOutcome struct {
	Result  *RunResult
	Tripped *GuardrailTripped
}

// Completed wraps a finished run.
func Completed(result *RunResult) RunOutcome {
	return RunOutcome{Result: result}
}

// Tripped wraps a guard rejection.
func Tripped(verdict GuardVerdict) RunOutcome {
	return RunOutcome{Tripped: &GuardrailTripped{Verdict: verdict}}
}

// Locale is the market context passed to catalog searches.
type Locale struct {
	Country  string `json:"country"`
	Language string `json:"language"`
}

// DefaultLocale is the US English storefront.
func DefaultLocale() Locale {
	return Locale{Country: "US", Language: "EN"}
}
