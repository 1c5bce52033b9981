// Package websearch implements the web search tool on top of the Serper
// (google.serper.dev) search API.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/hupe1980/taskmesh/logging"
	"github.com/hupe1980/taskmesh/tool"
)

const (
	// ToolName is the name agents use to call the web search tool.
	ToolName = "web_search"
	// DefaultBaseURL is the Serper API root.
	DefaultBaseURL = "https://google.serper.dev"
)

// ErrMissingAPIKey is returned when the client is created without a key.
var ErrMissingAPIKey = errors.New("serper api key is required")

// Options configures a Client.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	// MaxResults caps the number of organic results returned.
	MaxResults int
	Logger     logging.Logger
}

// Client queries the Serper search API.
type Client struct {
	apiKey string
	opts   Options
}

// NewClient creates a Serper client.
func NewClient(apiKey string, optFns ...func(o *Options)) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	opts := Options{
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		MaxResults: 8,
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Client{apiKey: apiKey, opts: opts}, nil
}

// NewTool exposes a Serper client as the web_search tool.
func NewTool(apiKey string, optFns ...func(o *Options)) (*tool.SearchTool, error) {
	client, err := NewClient(apiKey, optFns...)
	if err != nil {
		return nil, err
	}

	return tool.NewSearchTool(
		ToolName,
		"Search the public web for recent news, regulations and market data. "+
			"Pass a short natural-language query as search_query.",
		client,
	), nil
}

// Search runs query and returns the organic results.
func (c *Client) Search(ctx context.Context, query string) ([]tool.SearchResult, error) {
	body, err := json.Marshal(map[string]any{"q": query})
	if err != nil {
		return nil, err
	}

	endpoint := strings.TrimRight(c.opts.BaseURL, "/") + "/search"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serper request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("serper read body: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("serper api status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	if !gjson.ValidBytes(respBody) {
		return nil, errors.New("serper api returned invalid json")
	}

	results := parseOrganic(respBody, c.opts.MaxResults)

	c.opts.Logger.Debug("websearch.search",
		"query", query,
		"results", len(results),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return results, nil
}

func parseOrganic(body []byte, max int) []tool.SearchResult {
	results := []tool.SearchResult{}
	gjson.GetBytes(body, "organic").ForEach(func(_, item gjson.Result) bool {
		if max > 0 && len(results) >= max {
			return false
		}
		link := item.Get("link").String()
		if link == "" {
			return true
		}
		results = append(results, tool.SearchResult{
			Title:   item.Get("title").String(),
			Source:  link,
			Snippet: item.Get("snippet").String(),
			Score:   item.Get("position").Float(),
		})
		return true
	})

	// The answer box, when present, is the most direct hit.
	if answer := gjson.GetBytes(body, "answerBox"); answer.Exists() {
		snippet := answer.Get("answer").String()
		if snippet == "" {
			snippet = answer.Get("snippet").String()
		}
		if snippet != "" {
			box := tool.SearchResult{
				Title:   answer.Get("title").String(),
				Source:  answer.Get("link").String(),
				Snippet: snippet,
			}
			results = append([]tool.SearchResult{box}, results...)
			if max > 0 && len(results) > max {
				results = results[:max]
			}
		}
	}

	return results
}
