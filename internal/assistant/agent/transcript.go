package agent

import (
	"encoding/json"

	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"shop_assistant_backend/internal/assistant/domain"
)

const blockReasoning = "reasoning"

// transcript accumulates runner events into run output items.
type transcript struct {
	// labels maps a tool name to the server label it is reported under.
	labels map[string]string
	items  []domain.OutputItem
	blocks []domain.ContentBlock
}

func newTranscript(labels map[string]string) *transcript {
	return &transcript{labels: labels}
}

func (t *transcript) add(event *session.Event) {
	if event == nil || event.Partial || event.Content == nil {
		return
	}
	for _, part := range event.Content.Parts {
		t.addPart(event.Content.Role, part)
	}
	t.flush()
}

func (t *transcript) addPart(role string, part *genai.Part) {
	switch {
	case part == nil:
	case part.FunctionCall != nil:
		t.flush()
		args, _ := json.Marshal(part.FunctionCall.Args)
		t.items = append(t.items, domain.ToolCall{
			Name:      t.qualify(part.FunctionCall.Name),
			Arguments: string(args),
		})
	case part.FunctionResponse != nil:
		t.flush()
		t.items = append(t.items, domain.ToolMessage{
			Name:    t.qualify(part.FunctionResponse.Name),
			Content: payloadString(part.FunctionResponse.Response),
		})
	case role != genai.RoleModel || part.Text == "":
	case part.Thought:
		t.blocks = append(t.blocks, domain.ContentBlock{Type: blockReasoning, Text: part.Text})
	default:
		t.blocks = append(t.blocks, domain.ContentBlock{Type: domain.BlockOutputText, Text: part.Text})
	}
}

func (t *transcript) flush() {
	if len(t.blocks) == 0 {
		return
	}
	t.items = append(t.items, domain.AssistantMessage{Content: domain.BlockContent(t.blocks...)})
	t.blocks = nil
}

func (t *transcript) qualify(name string) string {
	if label, ok := t.labels[name]; ok && label != "" {
		return label + "." + name
	}
	return name
}

func (t *transcript) result() *domain.RunResult {
	t.flush()
	return &domain.RunResult{Output: t.items}
}

// payloadString recovers the string a tool produced. A lone "result" key is
// unwrapped; anything else is rendered as JSON.
func payloadString(response map[string]any) string {
	if value, ok := response["result"]; ok && len(response) == 1 {
		if s, ok := value.(string); ok {
			return s
		}
		b, _ := json.Marshal(value)
		return string(b)
	}
	b, _ := json.Marshal(response)
	return string(b)
}
