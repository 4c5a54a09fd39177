// Package brave provides a client for the Brave Web Search API, used by
// source discovery to find candidate activity sites.
package brave

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the Brave Search operations used by discovery.
type Client interface {
	// Search performs a web search and returns the organic results.
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// SearchResult represents a single web search result.
type SearchResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// searchResponse mirrors the slice of the Brave response we consume.
type searchResponse struct {
	Web struct {
		Results []SearchResult `json:"results"`
	} `json:"web"`
}

// Option configures the Brave client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(base string) Option {
	return func(c *httpClient) {
		c.baseURL = base
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithCount sets how many results to request per query.
func WithCount(n int) Option {
	return func(c *httpClient) {
		c.count = n
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	count   int
	http    *http.Client
}

// NewClient creates a new Brave Search client. Searches are restricted to
// Spain with Catalan as the search language, matching the sources the
// pipeline ingests.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.search.brave.com/res/v1",
		count:   10,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, query string) ([]SearchResult, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("count", strconv.Itoa(c.count))
	q.Set("country", "ES")
	q.Set("search_lang", "ca")

	reqURL := c.baseURL + "/web/search?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "brave: create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "brave: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "brave: read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("brave: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "brave: decode response")
	}

	return parsed.Web.Results, nil
}
