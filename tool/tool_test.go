package tool

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/memory"
)

func newToolContext(t *testing.T) *core.ToolContext {
	t.Helper()
	store := memory.NewInMemoryStore()
	store.Set("idea", "co-branded card")
	rc := core.NewRunContext(context.Background(), "run-1",
		map[string]string{core.InputUserPrompt: "acme"}, store, nil, nil)
	return core.NewToolContext(rc.ForTask("risk", core.AgentInfo{Name: "RiskAnalyst"}, 0), "fc-1")
}

func TestFunctionTool_ValidationAndExecution(t *testing.T) {
	echo := NewFunctionTool("echo", "Echo", map[string]any{
		"type":       "object",
		"properties": map[string]any{"text": map[string]any{"type": "string"}},
		"required":   []string{"text"},
	}, func(_ *core.ToolContext, args map[string]any) (any, error) {
		if args["text"] == "fail" {
			return nil, errors.New("backend down")
		}
		return args["text"], nil
	})

	tc := newToolContext(t)

	out, err := echo.Call(tc, map[string]any{"text": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", out)

	_, err = echo.Call(tc, map[string]any{})
	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, CodeValidation, toolErr.Code)
	assert.True(t, IsRecoverable(err))

	_, err = echo.Call(tc, map[string]any{"text": "fail"})
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, CodeExecution, toolErr.Code)
	assert.False(t, IsRecoverable(err))
}

func TestExecute(t *testing.T) {
	tc := newToolContext(t)
	panicky := NewFunctionTool("panicky", "Panics", map[string]any{"type": "object"},
		func(*core.ToolContext, map[string]any) (any, error) { panic("boom") })
	tools := []core.Tool{NewMemoryTool(), panicky}

	out, err := Execute(tc, tools, MemoryToolName, `{"operation":"get","key":"idea"}`)
	require.NoError(t, err)
	assert.Equal(t, "co-branded card", out.(map[string]any)["value"])

	tests := []struct {
		name, tool, args, code string
	}{
		{"unknown tool", "web_search", `{}`, CodeNotFound},
		{"bad json", MemoryToolName, `{"operation":`, CodeValidation},
		{"enum violation", MemoryToolName, `{"operation":"set"}`, CodeValidation},
		{"panic", "panicky", ``, CodeExecution},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Execute(tc, tools, tt.tool, tt.args)
			var toolErr *ToolError
			require.True(t, errors.As(err, &toolErr), "got %v", err)
			assert.Equal(t, tt.code, toolErr.Code)
		})
	}
}

func TestMemoryTool(t *testing.T) {
	tc := newToolContext(t)
	mt := NewMemoryTool()

	out, err := mt.Call(tc, map[string]any{"operation": "list_keys"})
	require.NoError(t, err)
	assert.Equal(t, []string{"idea"}, out.(map[string]any)["keys"])

	out, err = mt.Call(tc, map[string]any{"operation": "get", "key": "risk_summary"})
	require.NoError(t, err)
	assert.Equal(t, false, out.(map[string]any)["exists"])

	_, err = mt.Call(tc, map[string]any{"operation": "get"})
	assert.True(t, IsRecoverable(err))
}

func TestSearchTool(t *testing.T) {
	var gotQuery string
	st := NewSearchTool("knowledge_search", "Search docs", SearcherFunc(
		func(_ context.Context, q string) ([]SearchResult, error) {
			gotQuery = q
			if q == "outage" {
				return nil, errors.New("index unavailable")
			}
			return []SearchResult{{Title: "KYC", Source: "kyc.md", Snippet: "Verify identity."}}, nil
		}))
	tc := newToolContext(t)

	assert.Equal(t, []string{QueryArgument}, st.Parameters()["required"])

	out, err := st.Call(tc, map[string]any{QueryArgument: "  kyc rules "})
	require.NoError(t, err)
	assert.Equal(t, "kyc rules", gotQuery)
	assert.True(t, strings.Contains(out.(string), "(source: kyc.md)"))

	_, err = st.Call(tc, map[string]any{QueryArgument: " "})
	assert.True(t, IsRecoverable(err))

	_, err = st.Call(tc, map[string]any{QueryArgument: "outage"})
	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, CodeExecution, toolErr.Code)
}

func TestFormatResult(t *testing.T) {
	assert.Equal(t, "", FormatResult(nil))
	assert.Equal(t, "x", FormatResult("x"))
	assert.Equal(t, `{"a":1}`, FormatResult(map[string]int{"a": 1}))
}

func TestFormatSearchResults_Empty(t *testing.T) {
	assert.Equal(t, `No results found for "q".`, FormatSearchResults("q", nil))
}
