package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/taskmesh/model"
)

func TestBuildMessages(t *testing.T) {
	req := model.Request{
		Instructions: "You are the RiskAnalyst",
		Messages: []model.Message{
			model.UserMessage("assess risk"),
			{Role: model.RoleAssistant, ToolCalls: []model.ToolCall{
				model.NewToolCall("c1", "knowledge_search", `{"search_query":"fraud"}`),
			}},
			model.ToolResultMessage("c1", "fraud doc", false),
			{Role: model.RoleAssistant, Content: "done"},
		},
	}

	msgs := buildMessages(req)
	require.Len(t, msgs, 5)
	assert.NotNil(t, msgs[0].OfSystem)
	assert.NotNil(t, msgs[1].OfUser)
	require.NotNil(t, msgs[2].OfAssistant)
	require.Len(t, msgs[2].OfAssistant.ToolCalls, 1)
	assert.Equal(t, "c1", msgs[2].OfAssistant.ToolCalls[0].ID)
	require.NotNil(t, msgs[3].OfTool)
	assert.Equal(t, "c1", msgs[3].OfTool.ToolCallID)
	assert.NotNil(t, msgs[4].OfAssistant)
}

func TestBuildParams_Tools(t *testing.T) {
	m := NewModel(func(o *Options) {
		o.APIKey = "test"
		o.Model = "gpt-4o-mini"
	})
	params := m.buildParams(model.Request{Tools: []model.ToolDefinition{{
		Type:     "function",
		Function: model.FunctionDefinition{Name: "web_search", Description: "Search", Parameters: map[string]any{"type": "object"}},
	}}}, nil)

	require.Len(t, params.Tools, 1)
	assert.Equal(t, "web_search", params.Tools[0].Function.Name)
	assert.Equal(t, "gpt-4o-mini", m.Info().Name)
	assert.Equal(t, "openai", m.Info().Provider)
}
