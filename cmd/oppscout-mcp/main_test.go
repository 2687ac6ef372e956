package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const discoverBody = `{
	"success": true,
	"run_id": "run-1",
	"total": 1,
	"opportunities": [{
		"id": "abc",
		"match_score": 80,
		"title": "Feature Documentary Fund",
		"description": "Up to $150,000 for documentary production.",
		"amount": "$150,000",
		"source": "screen_australia",
		"url": "https://example.org/funding",
		"category": "Film & Documentary",
		"eligibility": "Check specific requirements",
		"success_probability": 0.8,
		"insights": {"urgency_level": "normal", "recommended_actions": ["Allocate significant time for application preparation"]}
	}],
	"cache_status": "miss",
	"timing": {"total_ms": 1200}
}`

type recorded struct {
	method string
	path   string
	query  string
	apiKey string
	body   map[string]interface{}
}

func fakeAPI(t *testing.T, status int, body string) (*httptest.Server, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = r.URL.RawQuery
		rec.apiKey = r.Header.Get("X-API-Key")
		if r.Method == http.MethodPost {
			_ = json.NewDecoder(r.Body).Decode(&rec.body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func TestHandleDiscover(t *testing.T) {
	srv, rec := fakeAPI(t, http.StatusOK, discoverBody)

	res, err := handleDiscover(srv.URL, "key-1")(t.Context(), callRequest(map[string]interface{}{
		"sources":          []interface{}{"screen_australia"},
		"collapse_similar": true,
		"max_age":          float64(60000),
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/api/v1/discover", rec.path)
	assert.Equal(t, "key-1", rec.apiKey)
	assert.Equal(t, []interface{}{"screen_australia"}, rec.body["sources"])
	assert.Equal(t, true, rec.body["collapse_similar"])
	assert.Equal(t, float64(60000), rec.body["max_age"])

	text := resultText(t, res)
	assert.Contains(t, text, "Run run-1: 1 opportunities")
	assert.Contains(t, text, "Feature Documentary Fund")
	assert.Contains(t, text, "Amount: $150,000")
	assert.Contains(t, text, "Success probability: 0.80 (match 80/100, urgency normal)")
	assert.NotContains(t, text, "Deadline:")
}

func TestHandleDiscover_NoArguments(t *testing.T) {
	srv, rec := fakeAPI(t, http.StatusOK, discoverBody)

	res, err := handleDiscover(srv.URL, "key-1")(t.Context(), callRequest(nil))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Empty(t, rec.body)
}

func TestHandleDiscover_APIError(t *testing.T) {
	srv, _ := fakeAPI(t, http.StatusBadRequest,
		`{"success": false, "error": {"code": "INVALID_INPUT", "message": "config: unknown source ids: nowhere"}}`)

	res, err := handleDiscover(srv.URL, "key-1")(t.Context(), callRequest(map[string]interface{}{
		"sources": []interface{}{"nowhere"},
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "[INVALID_INPUT]")
}

func TestHandleListSources(t *testing.T) {
	srv, rec := fakeAPI(t, http.StatusOK, `{
		"sources": [
			{"id": "vicscreen", "url": "https://vicscreen.vic.gov.au", "description": "VicScreen", "enabled": true, "endpoints": ["/funding"]},
			{"id": "old", "url": "https://old.example", "enabled": false, "endpoints": ["/a", "/b"]}
		],
		"total": 2
	}`)

	res, err := handleListSources(srv.URL, "key-1")(t.Context(), callRequest(nil))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/api/v1/sources", rec.path)

	text := resultText(t, res)
	assert.Contains(t, text, "2 sources")
	assert.Contains(t, text, "vicscreen (enabled)")
	assert.Contains(t, text, "old (disabled)")
	assert.Contains(t, text, "endpoints: /a, /b")
}

func TestHandleSearch(t *testing.T) {
	srv, rec := fakeAPI(t, http.StatusOK, `{"success": true, "total": 0, "opportunities": []}`)

	res, err := handleSearch(srv.URL, "key-1")(t.Context(), callRequest(map[string]interface{}{
		"source":          "vicscreen",
		"min_probability": 0.6,
		"limit":           float64(10),
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "/api/v1/opportunities", rec.path)
	assert.Equal(t, "limit=10&min_probability=0.6&source=vicscreen", rec.query)
	assert.Contains(t, resultText(t, res), "0 stored opportunities")
}

func TestHandleSearch_StoreUnavailable(t *testing.T) {
	srv, _ := fakeAPI(t, http.StatusServiceUnavailable,
		`{"success": false, "error": {"code": "STORE_UNAVAILABLE", "message": "no opportunity store configured"}}`)

	res, err := handleSearch(srv.URL, "key-1")(t.Context(), callRequest(nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "STORE_UNAVAILABLE")
}

func TestNewServer(t *testing.T) {
	s := newServer("http://127.0.0.1:1", "key")
	assert.NotNil(t, s)
}
