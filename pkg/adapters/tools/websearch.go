package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const searchEndpoint = "https://api.duckduckgo.com/"

// WebSearch answers queries through the DuckDuckGo instant answer API.
// Results are abstract-level summaries, not full page scraping.
type WebSearch struct {
	client *http.Client
}

// NewWebSearch creates the web_search tool.
func NewWebSearch() *WebSearch {
	return &WebSearch{
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (t *WebSearch) Name() string { return "web_search" }

func (t *WebSearch) Description() string {
	return "Searches the web and returns a short summary of the top results."
}

func (t *WebSearch) InputSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {
				"type": "string",
				"description": "The search query."
			}
		},
		"required": ["query"]
	}`)
}

func (t *WebSearch) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	var input struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return "", fmt.Errorf("parse arguments: %w", err)
	}
	if strings.TrimSpace(input.Query) == "" {
		return "", fmt.Errorf("query is required")
	}

	endpoint := searchEndpoint + "?" + url.Values{
		"q":             {input.Query},
		"format":        {"json"},
		"no_html":       {"1"},
		"skip_disambig": {"1"},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read search response: %w", err)
	}

	var result struct {
		AbstractText  string `json:"AbstractText"`
		AbstractURL   string `json:"AbstractURL"`
		Answer        string `json:"Answer"`
		RelatedTopics []struct {
			Text     string `json:"Text"`
			FirstURL string `json:"FirstURL"`
		} `json:"RelatedTopics"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decode search response: %w", err)
	}

	var b strings.Builder
	if result.Answer != "" {
		fmt.Fprintf(&b, "%s\n", result.Answer)
	}
	if result.AbstractText != "" {
		fmt.Fprintf(&b, "%s (%s)\n", result.AbstractText, result.AbstractURL)
	}
	count := 0
	for _, topic := range result.RelatedTopics {
		if topic.Text == "" {
			continue
		}
		fmt.Fprintf(&b, "- %s (%s)\n", topic.Text, topic.FirstURL)
		count++
		if count >= 5 {
			break
		}
	}

	if b.Len() == 0 {
		return "No results found for: " + input.Query, nil
	}
	return strings.TrimSpace(b.String()), nil
}
