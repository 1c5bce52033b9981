package tool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/taskmesh/core"
)

// QueryArgument is the single argument every retrieval and search tool takes:
// a short natural-language query string.
const QueryArgument = "search_query"

// SearchResult is one hit returned by a Searcher.
type SearchResult struct {
	Title   string  `json:"title"`
	Source  string  `json:"source"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score,omitempty"`
}

// Searcher is the backend of a search tool.
type Searcher interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// SearcherFunc adapts a plain function to Searcher.
type SearcherFunc func(ctx context.Context, query string) ([]SearchResult, error)

// Search implements Searcher.
func (f SearcherFunc) Search(ctx context.Context, query string) ([]SearchResult, error) {
	return f(ctx, query)
}

// SearchTool exposes a Searcher under the search_query calling convention.
type SearchTool struct {
	name        string
	description string
	searcher    Searcher
}

// NewSearchTool wraps searcher as a tool.
func NewSearchTool(name, description string, searcher Searcher) *SearchTool {
	return &SearchTool{name: name, description: description, searcher: searcher}
}

// Name returns the tool name.
func (t *SearchTool) Name() string { return t.name }

// Description returns the tool description.
func (t *SearchTool) Description() string { return t.description }

// Parameters returns the JSON schema: one required search_query string.
func (t *SearchTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			QueryArgument: map[string]any{
				"type":        "string",
				"description": "Short natural-language search query",
			},
		},
		"required": []string{QueryArgument},
	}
}

// Call runs the search. A missing or blank query is a VALIDATION_ERROR, a
// backend failure an EXECUTION_ERROR.
func (t *SearchTool) Call(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	query, _ := args[QueryArgument].(string)
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, NewToolError(t.name, fmt.Sprintf("%s must be a non-empty string", QueryArgument), CodeValidation)
	}

	start := time.Now()
	results, err := t.searcher.Search(toolCtx.Context(), query)
	if err != nil {
		toolCtx.LogError("tool.search.failed", "tool", t.name, "query", query, "error", err.Error())
		return nil, &ToolError{Tool: t.name, Message: err.Error(), Code: CodeExecution}
	}

	toolCtx.LogInfo("tool.search.completed",
		"tool", t.name,
		"query", query,
		"results", len(results),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return FormatSearchResults(query, results), nil
}

// FormatSearchResults renders results as a numbered plain text list, citing
// each result's source.
func FormatSearchResults(query string, results []SearchResult) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results found for %q.", query)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Results for %q:\n", query)
	for i, r := range results {
		fmt.Fprintf(&b, "\n[%d] %s (source: %s)\n%s\n", i+1, r.Title, r.Source, strings.TrimSpace(r.Snippet))
	}
	return b.String()
}
