package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultCount is the number of results requested when the caller does not care.
// The Brave endpoint supports small counts; anything outside 1-5 is clamped.
const (
	DefaultCount = 3
	minCount     = 1
	maxCount     = 5
)

// Result is one normalized web search hit.
type Result struct {
	Title   string
	Snippet string
	URL     string
}

// APIError is returned when the search provider answers with a non-2xx status.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("brave search: status=%d body=%s", e.Status, e.Body)
}

type BraveClient struct {
	HTTPClient *http.Client
	APIKey     string
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			URL         string `json:"url"`
		} `json:"results"`
	} `json:"web"`
}

func NewBraveClient(apiKey string) *BraveClient {
	return &BraveClient{
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		APIKey:     apiKey,
	}
}

// Search runs one web search and normalizes the provider result shape.
// An empty result list is not an error; the caller turns it into a spoken
// apology.
func (c *BraveClient) Search(ctx context.Context, query string, count int) ([]Result, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("brave search: api key missing")
	}
	if count < minCount {
		count = minCount
	}
	if count > maxCount {
		count = maxCount
	}

	u := url.URL{Scheme: "https", Host: "api.search.brave.com", Path: "/res/v1/web/search"}
	q := u.Query()
	q.Set("q", query)
	q.Set("count", fmt.Sprintf("%d", count))
	q.Set("country", "us")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("brave search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, &APIError{Status: resp.StatusCode, Body: string(b)}
	}

	var br braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
		return nil, fmt.Errorf("brave search: decode: %w", err)
	}

	results := make([]Result, 0, count)
	for _, r := range br.Web.Results {
		if len(results) >= count {
			break
		}
		results = append(results, Result{Title: r.Title, Snippet: r.Description, URL: r.URL})
	}
	return results, nil
}
