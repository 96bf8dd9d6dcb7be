package search

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

// SerpProvider queries SerpAPI-compatible endpoints. Each result type maps
// to a different engine so one query can fan out into web, news and patent
// variants.
type SerpProvider struct {
	ApiKey  string
	BaseURL string
	Client  *http.Client
}

var _ Provider = &SerpProvider{}

func NewSerpProvider(apiKey string) *SerpProvider {
	return &SerpProvider{
		ApiKey:  apiKey,
		BaseURL: "https://serpapi.com/search",
		Client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

var engines = map[ResultType]string{
	TypeWeb:    "google",
	TypeNews:   "google_news",
	TypePatent: "google_patents",
}

// --- Response structs (Internal to this package) ---

type serpOrganicResult struct {
	Link       string `json:"link"`
	PatentLink string `json:"patent_link"`
	Title      string `json:"title"`
	Snippet    string `json:"snippet"`
}

type serpNewsResult struct {
	Link    string `json:"link"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

type serpResponse struct {
	OrganicResults []serpOrganicResult `json:"organic_results"`
	NewsResults    []serpNewsResult    `json:"news_results"`
}

func (p *SerpProvider) Search(ctx context.Context, query string, resultType ResultType, limit int) ([]Result, error) {
	if p.ApiKey == "" {
		// No provider configured: absent responses yield an empty list.
		return nil, nil
	}

	engine, ok := engines[resultType]
	if !ok {
		return nil, fmt.Errorf("unknown result type: %s", resultType)
	}

	params := url.Values{}
	params.Set("engine", engine)
	params.Set("q", query)
	params.Set("num", fmt.Sprintf("%d", limit))
	params.Set("api_key", p.ApiKey)

	req, err := http.NewRequestWithContext(ctx, "GET", p.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	res, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search error: status %d, body: %s", res.StatusCode, string(body))
	}

	var parsed serpResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return normalize(parsed, resultType, limit), nil
}

func normalize(parsed serpResponse, resultType ResultType, limit int) []Result {
	results := make([]Result, 0, limit)

	appendResult := func(link, title, snippet string) {
		if len(results) >= limit {
			return
		}
		link = strings.TrimSpace(link)
		if link == "" {
			return
		}
		results = append(results, Result{
			URL:     link,
			Domain:  DomainOf(link),
			Title:   title,
			Snippet: snippet,
			Type:    resultType,
		})
	}

	for _, r := range parsed.NewsResults {
		appendResult(r.Link, r.Title, r.Snippet)
	}
	for _, r := range parsed.OrganicResults {
		link := r.Link
		if link == "" {
			link = r.PatentLink
		}
		appendResult(link, r.Title, r.Snippet)
	}

	return results
}

// DomainOf extracts the bare host of a URL, empty when unparseable.
func DomainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
