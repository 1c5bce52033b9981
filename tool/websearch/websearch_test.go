package websearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const serperResponse = `{
  "searchParameters": {"q": "fintech bank partnership"},
  "organic": [
    {"title": "Bank partners with fintech", "link": "https://example.com/a", "snippet": "A bank announced...", "position": 1},
    {"title": "No link entry", "snippet": "skipped", "position": 2},
    {"title": "Regulators weigh in", "link": "https://example.com/b", "snippet": "New guidance...", "position": 3}
  ]
}`

func newServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-KEY"))

		var payload map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "fintech bank partnership", payload["q"])

		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Search(t *testing.T) {
	srv := newServer(t, http.StatusOK, serperResponse)

	client, err := NewClient("secret", func(o *Options) {
		o.BaseURL = srv.URL
		o.HTTPClient = srv.Client()
	})
	require.NoError(t, err)

	results, err := client.Search(context.Background(), "fintech bank partnership")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Bank partners with fintech", results[0].Title)
	assert.Equal(t, "https://example.com/a", results[0].Source)
	assert.Equal(t, "https://example.com/b", results[1].Source)
}

func TestClient_SearchMaxResults(t *testing.T) {
	srv := newServer(t, http.StatusOK, serperResponse)

	client, err := NewClient("secret", func(o *Options) {
		o.BaseURL = srv.URL
		o.MaxResults = 1
	})
	require.NoError(t, err)

	results, err := client.Search(context.Background(), "fintech bank partnership")
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestClient_SearchHTTPError(t *testing.T) {
	srv := newServer(t, http.StatusUnauthorized, `{"message":"bad key"}`)

	client, err := NewClient("secret", func(o *Options) { o.BaseURL = srv.URL })
	require.NoError(t, err)

	_, err = client.Search(context.Background(), "fintech bank partnership")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=401")
}

func TestClient_SearchInvalidJSON(t *testing.T) {
	srv := newServer(t, http.StatusOK, `not json`)

	client, err := NewClient("secret", func(o *Options) { o.BaseURL = srv.URL })
	require.NoError(t, err)

	_, err = client.Search(context.Background(), "fintech bank partnership")
	assert.Error(t, err)
}

func TestParseOrganic_AnswerBox(t *testing.T) {
	body := []byte(`{"answerBox":{"title":"Answer","link":"https://x","answer":"42"},"organic":[{"title":"t","link":"https://y","snippet":"s"}]}`)
	results := parseOrganic(body, 0)
	require.Len(t, results, 2)
	assert.Equal(t, "42", results[0].Snippet)
}

func TestNewTool_RequiresKey(t *testing.T) {
	_, err := NewTool(" ")
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	st, err := NewTool("k")
	require.NoError(t, err)
	assert.Equal(t, ToolName, st.Name())
}
