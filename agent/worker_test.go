package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/model"
	"github.com/hupe1980/taskmesh/tool"
)

func newSearchTool(name string, err error) *tool.SearchTool {
	return tool.NewSearchTool(name, "test search", tool.SearcherFunc(func(_ context.Context, q string) ([]tool.SearchResult, error) {
		if err != nil {
			return nil, err
		}
		return []tool.SearchResult{{Title: "KYC policy", Source: "kyc.md", Snippet: "about " + q}}, nil
	}))
}

func TestNewWorker_Persona(t *testing.T) {
	llm := model.NewMockModel("gpt-test", "mock")
	w := NewWorker("ComplianceOfficer", llm, func(o *Options) {
		o.Role = "Compliance Officer"
		o.Goal = "Flag regulatory requirements"
		o.Tools = []core.Tool{newSearchTool("lookup", nil)}
	})

	info := w.Info()
	assert.Equal(t, "ComplianceOfficer", info.Name)
	assert.Equal(t, core.AgentKindWorker, info.Kind)
	assert.False(t, info.CanDelegate)
	assert.Equal(t, "gpt-test", info.Model)
	assert.Len(t, w.Tools(), 1)
	assert.Equal(t, DefaultMaxModelCalls, w.MaxModelCalls())

	instr, err := w.ResolveInstructions(newTestRunContext())
	require.NoError(t, err)
	assert.Contains(t, instr, "Compliance Officer")
	assert.Contains(t, instr, "Goal: Flag regulatory requirements")
}

func TestWorker_ExecuteToolLoop(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")
	llm.Enqueue(
		model.ToolCallResponse(model.NewToolCall("c1", "lookup", `{"search_query":"kyc"}`)),
		model.TextResponse("  final answer  "),
	)
	w := NewWorker("Analyst", llm)
	tools := []core.Tool{newSearchTool("lookup", nil)}

	out, err := w.Execute(newTestRunContext(), "research kyc", tools)
	require.NoError(t, err)
	assert.Equal(t, "final answer", out)

	reqs := llm.Requests()
	require.Len(t, reqs, 2)
	assert.Len(t, reqs[0].Tools, 1)
	assert.Equal(t, "research kyc", reqs[0].Messages[0].Content)

	last := reqs[1].Messages[len(reqs[1].Messages)-1]
	assert.Equal(t, model.RoleTool, last.Role)
	assert.Equal(t, "c1", last.ToolCallID)
	assert.False(t, last.IsError)
	assert.Contains(t, last.Content, "source: kyc.md")
}

func TestWorker_RecoverableToolErrorIsFedBack(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")
	llm.Enqueue(
		model.ToolCallResponse(model.NewToolCall("", "missing_tool", `{}`)),
		model.ToolCallResponse(model.NewToolCall("c2", "lookup", `{"search_query":" "}`)),
		model.TextResponse("recovered"),
	)
	w := NewWorker("Analyst", llm)

	out, err := w.Execute(newTestRunContext(), "go", []core.Tool{newSearchTool("lookup", nil)})
	require.NoError(t, err)
	assert.Equal(t, "recovered", out)

	reqs := llm.Requests()
	require.Len(t, reqs, 3)

	second := reqs[1].Messages
	notFound := second[len(second)-1]
	assert.True(t, notFound.IsError)
	assert.Contains(t, notFound.Content, tool.CodeNotFound)
	assert.NotEmpty(t, notFound.ToolCallID, "missing call ids are generated")
	assert.Equal(t, notFound.ToolCallID, second[len(second)-2].ToolCalls[0].ID)

	third := reqs[2].Messages
	assert.Contains(t, third[len(third)-1].Content, tool.CodeValidation)
}

func TestWorker_ExecutionErrorAborts(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")
	llm.Enqueue(model.ToolCallResponse(model.NewToolCall("c1", "lookup", `{"search_query":"x"}`)))
	w := NewWorker("Analyst", llm)

	_, err := w.Execute(newTestRunContext(), "go", []core.Tool{newSearchTool("lookup", errors.New("backend down"))})
	require.Error(t, err)

	var te *tool.ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, tool.CodeExecution, te.Code)
	assert.Equal(t, 1, llm.Calls())
}

func TestWorker_ModelCallLimit(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")
	llm.SetHandler(func(context.Context, model.Request) (*model.Response, error) {
		return model.ToolCallResponse(model.NewToolCall("c", "lookup", `{"search_query":"again"}`)), nil
	})
	w := NewWorker("Looper", llm, func(o *Options) { o.MaxModelCalls = 2 })

	rc := newTestRunContext().ForTask("t1", w.Info(), w.MaxModelCalls())
	_, err := w.Execute(rc, "loop", []core.Tool{newSearchTool("lookup", nil)})
	require.ErrorIs(t, err, core.ErrModelCallLimit)
	assert.Equal(t, 2, llm.Calls())
}

func TestWorker_ModelError(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")
	llm.SetHandler(func(context.Context, model.Request) (*model.Response, error) {
		return nil, errors.New("rate limited")
	})
	w := NewWorker("Analyst", llm)

	_, err := w.Execute(newTestRunContext(), "go", nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "rate limited"))
}

func TestWorker_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	llm := model.NewMockModel("mock", "mock")
	w := NewWorker("Analyst", llm)
	rc := newTestRunContext().WithContext(ctx)

	_, err := w.Execute(rc, "go", nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, llm.Calls())
}
