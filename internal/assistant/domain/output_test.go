package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunResultUnmarshalChoosesVariants(t *testing.T) {
	raw := `{"output":[
		{"type":"function_call","name":"search_shop_catalog","arguments":"{\"query\":\"shoes\"}"},
		{"role":"tool","name":"Shopify_Storefront_Tools.search_shop_catalog","content":"[{\"id\":\"1\"}]"},
		{"role":"tool","name":"web_search","content":{"results":[]}},
		{"role":"assistant","content":[{"type":"reasoning","text":"thinking"},{"type":"output_text","text":"Found one."}]},
		{"role":"assistant","content":"plain"},
		{"type":"hosted_tool_call","status":"completed"},
		42
	]}`

	var result RunResult
	require.NoError(t, json.Unmarshal([]byte(raw), &result))
	require.Len(t, result.Output, 7)

	assert.Equal(t, ToolCall{Name: "search_shop_catalog", Arguments: `{"query":"shoes"}`}, result.Output[0])
	assert.Equal(t, ToolMessage{Name: "Shopify_Storefront_Tools.search_shop_catalog", Content: `[{"id":"1"}]`}, result.Output[1])
	assert.Equal(t, ToolMessage{Name: "web_search", Content: `{"results":[]}`}, result.Output[2])

	msg, ok := result.Output[3].(AssistantMessage)
	require.True(t, ok)
	assert.True(t, msg.Content.IsBlocks())
	assert.Equal(t, "Found one.", msg.Content.Blocks[1].Text)

	assert.Equal(t, AssistantMessage{Content: TextContent("plain")}, result.Output[4])
	assert.IsType(t, OtherItem{}, result.Output[5])
	assert.IsType(t, OtherItem{}, result.Output[6])
}

func TestRunResultMarshalReadsBack(t *testing.T) {
	original := RunResult{Output: []OutputItem{
		ToolMessage{Name: "Shopify_Storefront_Tools.search_shop_catalog", Content: `[]`},
		AssistantMessage{Content: BlockContent(ContentBlock{Type: BlockOutputText, Text: "Hi"})},
	}}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded RunResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)
}

func TestMessageContentEmptiness(t *testing.T) {
	assert.True(t, TextContent("").IsEmpty())
	assert.False(t, TextContent("x").IsEmpty())
	assert.True(t, BlockContent().IsEmpty())
	assert.True(t, BlockContent().IsBlocks())
	assert.False(t, BlockContent(ContentBlock{Type: "reasoning"}).IsEmpty())
}

func TestMessageContentRejectsObjects(t *testing.T) {
	var c MessageContent
	assert.Error(t, json.Unmarshal([]byte(`{"text":"x"}`), &c))
}

func TestAgentResponseProductsNeverNull(t *testing.T) {
	data, err := json.Marshal(AgentResponse{Answer: "hello"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"answer":"hello","products":[]}`, string(data))

	resp := NewAgentResponse("a", []Product{json.RawMessage(`{"id":"p1","title":"Runner"}`)})
	data, err = json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"answer":"a","products":[{"id":"p1","title":"Runner"}]}`, string(data))
}
