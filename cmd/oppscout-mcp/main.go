package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// apiError mirrors the oppscout API error detail.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// opportunity mirrors the oppscout API opportunity view.
type opportunity struct {
	ID                 string  `json:"id"`
	MatchScore         int     `json:"match_score"`
	Title              string  `json:"title"`
	Description        string  `json:"description"`
	Amount             string  `json:"amount"`
	Deadline           string  `json:"deadline"`
	Source             string  `json:"source"`
	URL                string  `json:"url"`
	Category           string  `json:"category"`
	Eligibility        string  `json:"eligibility"`
	SuccessProbability float64 `json:"success_probability"`
	Insights           struct {
		Urgency            string   `json:"urgency_level"`
		RecommendedActions []string `json:"recommended_actions"`
	} `json:"insights"`
}

// discoverResponse mirrors the oppscout discover API response.
type discoverResponse struct {
	Success       bool          `json:"success"`
	RunID         string        `json:"run_id"`
	Total         int           `json:"total"`
	Opportunities []opportunity `json:"opportunities"`
	CacheStatus   string        `json:"cache_status"`
	Timing        struct {
		TotalMs int64 `json:"total_ms"`
	} `json:"timing"`
	Error *apiError `json:"error"`
}

// listResponse mirrors the oppscout stored-opportunity listing.
type listResponse struct {
	Success       bool          `json:"success"`
	Total         int           `json:"total"`
	Opportunities []opportunity `json:"opportunities"`
	Error         *apiError     `json:"error"`
}

// sourcesResponse mirrors the oppscout source listing.
type sourcesResponse struct {
	Sources []struct {
		ID          string   `json:"id"`
		URL         string   `json:"url"`
		Description string   `json:"description"`
		Enabled     bool     `json:"enabled"`
		Endpoints   []string `json:"endpoints"`
	} `json:"sources"`
	Total int       `json:"total"`
	Error *apiError `json:"error"`
}

func main() {
	apiURL := os.Getenv("OPPSCOUT_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("OPPSCOUT_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "OPPSCOUT_API_KEY is required")
		os.Exit(1)
	}

	if err := server.ServeStdio(newServer(apiURL, apiKey)); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func newServer(apiURL, apiKey string) *server.MCPServer {
	s := server.NewMCPServer(
		"oppscout",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	discoverTool := mcp.NewTool("discover_opportunities",
		mcp.WithDescription("Crawl funding bodies for grant opportunities and return them ranked by estimated success probability. A full run visits every source with polite pacing and can take several minutes."),
		mcp.WithArray("sources",
			mcp.Description("Source IDs to crawl (see list_sources). Omit to crawl every enabled source."),
		),
		mcp.WithBoolean("collapse_similar",
			mcp.Description("Merge near-duplicate opportunities found by several pages or sources"),
		),
		mcp.WithNumber("max_age",
			mcp.Description("Reuse a cached run younger than this many milliseconds (default: 0, always crawl)"),
		),
	)
	s.AddTool(discoverTool, handleDiscover(apiURL, apiKey))

	listSourcesTool := mcp.NewTool("list_sources",
		mcp.WithDescription("List the funding bodies oppscout knows how to crawl, with their endpoints."),
	)
	s.AddTool(listSourcesTool, handleListSources(apiURL, apiKey))

	searchTool := mcp.NewTool("search_opportunities",
		mcp.WithDescription("Search opportunities stored by earlier discovery runs without crawling again."),
		mcp.WithString("source",
			mcp.Description("Only opportunities from this source ID"),
		),
		mcp.WithString("category",
			mcp.Description("Only opportunities in this category, e.g. 'Film & Documentary'"),
		),
		mcp.WithNumber("min_probability",
			mcp.Description("Minimum success probability between 0 and 1"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (default: 50, max: 500)"),
		),
	)
	s.AddTool(searchTool, handleSearch(apiURL, apiKey))

	return s
}

// apiPost sends a POST request to the oppscout API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", apiKey)

	return do(client, req)
}

// apiGet sends a GET request to the oppscout API and returns the response body.
func apiGet(ctx context.Context, client *http.Client, apiURL, apiKey, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-API-Key", apiKey)

	return do(client, req)
}

func do(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func errorText(fallback string, e *apiError) string {
	if e == nil {
		return fallback
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func handleDiscover(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 15 * time.Minute}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		payload := map[string]interface{}{}
		args := request.GetArguments()
		if _, ok := args["sources"]; ok {
			sources, err := request.RequireStringSlice("sources")
			if err != nil {
				return mcp.NewToolResultError("sources must be an array of strings"), nil
			}
			payload["sources"] = sources
		}
		if collapse, ok := args["collapse_similar"].(bool); ok {
			payload["collapse_similar"] = collapse
		}
		if maxAge, ok := args["max_age"]; ok {
			payload["max_age"] = maxAge
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/discover", payload)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp discoverResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(errorText("discovery failed", resp.Error)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Run %s: %d opportunities in %dms", resp.RunID, resp.Total, resp.Timing.TotalMs)
		if resp.CacheStatus == "hit" {
			sb.WriteString(" (cached)")
		}
		sb.WriteString("\n")
		writeOpportunities(&sb, resp.Opportunities)

		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleListSources(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		respBody, err := apiGet(ctx, client, apiURL, apiKey, "/api/v1/sources")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp sourcesResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if resp.Error != nil {
			return mcp.NewToolResultError(errorText("", resp.Error)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "%d sources\n", resp.Total)
		for _, src := range resp.Sources {
			state := "enabled"
			if !src.Enabled {
				state = "disabled"
			}
			fmt.Fprintf(&sb, "\n%s (%s) %s\n", src.ID, state, src.URL)
			if src.Description != "" {
				fmt.Fprintf(&sb, "  %s\n", src.Description)
			}
			fmt.Fprintf(&sb, "  endpoints: %s\n", strings.Join(src.Endpoints, ", "))
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleSearch(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		q := url.Values{}
		if v := request.GetString("source", ""); v != "" {
			q.Set("source", v)
		}
		if v := request.GetString("category", ""); v != "" {
			q.Set("category", v)
		}
		args := request.GetArguments()
		if v, ok := args["min_probability"].(float64); ok {
			q.Set("min_probability", fmt.Sprintf("%g", v))
		}
		if v, ok := args["limit"].(float64); ok {
			q.Set("limit", fmt.Sprintf("%d", int(v)))
		}

		path := "/api/v1/opportunities"
		if len(q) > 0 {
			path += "?" + q.Encode()
		}
		respBody, err := apiGet(ctx, client, apiURL, apiKey, path)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp listResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(errorText("search failed", resp.Error)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "%d stored opportunities\n", resp.Total)
		writeOpportunities(&sb, resp.Opportunities)

		return mcp.NewToolResultText(sb.String()), nil
	}
}

func writeOpportunities(sb *strings.Builder, opps []opportunity) {
	for i, o := range opps {
		fmt.Fprintf(sb, "\n--- [%d] %s ---\n", i+1, o.Title)
		fmt.Fprintf(sb, "Source: %s\nURL: %s\n", o.Source, o.URL)
		fmt.Fprintf(sb, "Category: %s\n", o.Category)
		if o.Amount != "" {
			fmt.Fprintf(sb, "Amount: %s\n", o.Amount)
		}
		if o.Deadline != "" {
			fmt.Fprintf(sb, "Deadline: %s\n", o.Deadline)
		}
		fmt.Fprintf(sb, "Success probability: %.2f (match %d/100, urgency %s)\n",
			o.SuccessProbability, o.MatchScore, o.Insights.Urgency)
		if o.Eligibility != "" {
			fmt.Fprintf(sb, "Eligibility: %s\n", o.Eligibility)
		}
		if len(o.Insights.RecommendedActions) > 0 {
			fmt.Fprintf(sb, "Actions: %s\n", strings.Join(o.Insights.RecommendedActions, "; "))
		}
		if o.Description != "" {
			sb.WriteString("\n" + o.Description + "\n")
		}
	}
}
