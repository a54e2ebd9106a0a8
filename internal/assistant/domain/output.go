package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RunResult is the ordered output of one agent run.
type RunResult struct {
	Output []OutputItem
}

// OutputItem is one entry of a run transcript. The set of implementations is closed.
type OutputItem interface {
	isOutputItem()
}

// ContentBlock is one typed piece of assistant content.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// BlockOutputText marks the blocks that carry the assistant's reply.
const BlockOutputText = "output_text"

// MessageContent is either plain text or an ordered list of blocks.
type MessageContent struct {
	Text   string
	Blocks []ContentBlock
}

// TextContent builds plain-text content.
func TextContent(text string) MessageContent {
	return MessageContent{Text: text}
}

// BlockContent builds block content.
func BlockContent(blocks ...ContentBlock) MessageContent {
	if blocks == nil {
		blocks = []ContentBlock{}
	}
	return MessageContent{Blocks: blocks}
}

// IsBlocks reports whether the content is the block form.
func (c MessageContent) IsBlocks() bool {
	return c.Blocks != nil
}

// IsEmpty reports whether there is nothing in the content.
func (c MessageContent) IsEmpty() bool {
	if c.IsBlocks() {
		return len(c.Blocks) == 0
	}
	return c.Text == ""
}

func (c MessageContent) MarshalJSON() ([]byte, error) {
	if c.IsBlocks() {
		return json.Marshal(c.Blocks)
	}
	return json.Marshal(c.Text)
}

func (c *MessageContent) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		*c = MessageContent{}
		return nil
	case trimmed[0] == '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		*c = TextContent(text)
		return nil
	case trimmed[0] == '[':
		var blocks []ContentBlock
		if err := json.Unmarshal(trimmed, &blocks); err != nil {
			return err
		}
		*c = BlockContent(blocks...)
		return nil
	default:
		return fmt.Errorf("message content must be a string or an array, got %s", trimmed[:1])
	}
}

// AssistantMessage is text produced by the model.
type AssistantMessage struct {
	Content MessageContent
}

// ToolMessage is the result of a tool call. Name is namespaced by the tool
// server label when the tool is hosted (e.g. Shopify_Storefront_Tools.search_shop_catalog).
type ToolMessage struct {
	Name    string
	Content string
}

// ToolCall is the model's request to run a tool.
type ToolCall struct {
	Name      string
	Arguments string
}

// OtherItem is any transcript entry the pipeline does not interpret.
type OtherItem struct {
	Raw json.RawMessage
}

func (AssistantMessage) isOutputItem() {}
func (ToolMessage) isOutputItem()      {}
func (ToolCall) isOutputItem()         {}
func (OtherItem) isOutputItem()        {}

type wireItem struct {
	Role      string          `json:"role,omitempty"`
	Type      string          `json:"type,omitempty"`
	Name      string          `json:"name,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
	Arguments string          `json:"arguments,omitempty"`
}

// UnmarshalJSON decodes {"output":[...]} choosing each item's variant from
// its role or type.
func (r *RunResult) UnmarshalJSON(data []byte) error {
	var wire struct {
		Output []json.RawMessage `json:"output"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	items := make([]OutputItem, 0, len(wire.Output))
	for i, raw := range wire.Output {
		item, err := decodeItem(raw)
		if err != nil {
			return fmt.Errorf("output[%d]: %w", i, err)
		}
		items = append(items, item)
	}
	r.Output = items
	return nil
}

func decodeItem(raw json.RawMessage) (OutputItem, error) {
	var w wireItem
	if err := json.Unmarshal(raw, &w); err != nil {
		// Non-object entries are kept opaque.
		return OtherItem{Raw: append(json.RawMessage(nil), raw...)}, nil
	}

	switch {
	case w.Role == "assistant":
		var content MessageContent
		if len(w.Content) > 0 {
			if err := json.Unmarshal(w.Content, &content); err != nil {
				return nil, err
			}
		}
		return AssistantMessage{Content: content}, nil
	case w.Role == "tool":
		return ToolMessage{Name: w.Name, Content: rawToString(w.Content)}, nil
	case w.Type == "function_call":
		return ToolCall{Name: w.Name, Arguments: w.Arguments}, nil
	default:
		return OtherItem{Raw: append(json.RawMessage(nil), raw...)}, nil
	}
}

// rawToString returns a JSON string's value, or the raw JSON text otherwise.
func rawToString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// MarshalJSON renders the transcript in the same shape UnmarshalJSON reads.
func (r RunResult) MarshalJSON() ([]byte, error) {
	out := make([]json.RawMessage, 0, len(r.Output))
	for _, item := range r.Output {
		var (
			b   []byte
			err error
		)
		switch v := item.(type) {
		case AssistantMessage:
			b, err = json.Marshal(struct {
				Role    string         `json:"role"`
				Content MessageContent `json:"content"`
			}{"assistant", v.Content})
		case ToolMessage:
			b, err = json.Marshal(struct {
				Role    string `json:"role"`
				Name    string `json:"name"`
				Content string `json:"content"`
			}{"tool", v.Name, v.Content})
		case ToolCall:
			b, err = json.Marshal(struct {
				Type      string `json:"type"`
				Name      string `json:"name"`
				Arguments string `json:"arguments"`
			}{"function_call", v.Name, v.Arguments})
		case OtherItem:
			b = v.Raw
			if len(b) == 0 {
				b = []byte("null")
			}
		default:
			err = fmt.Errorf("unknown output item %T", item)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return json.Marshal(struct {
		Output []json.RawMessage `json:"output"`
	}{out})
}
