package scrape

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/net/html"
)

// Fetcher turns a URL into an ordered sequence of plain-text lines.
// A non-success status or transport failure yields an empty sequence, never
// a panic: research must tolerate dead links.
type Fetcher interface {
	FetchLines(ctx context.Context, url string) ([]string, error)
}

type HTTPFetcher struct {
	Client *http.Client

	// Pages are cached briefly so that the duplicate-URL race between two
	// concurrent queries does not fetch the same document twice.
	pages *cache.Cache
}

var _ Fetcher = &HTTPFetcher{}

func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
		pages: cache.New(10*time.Minute, 30*time.Minute),
	}
}

func (f *HTTPFetcher) FetchLines(ctx context.Context, url string) ([]string, error) {
	if cached, found := f.pages.Get(url); found {
		return cached.([]string), nil
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "StratosResearchBot/1.0")

	res, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, nil
	}

	doc, err := html.Parse(res.Body)
	if err != nil {
		return nil, nil
	}

	lines := extractLines(doc)
	f.pages.Set(url, lines, cache.DefaultExpiration)
	return lines, nil
}

// skippedTags hold boilerplate, not evidence.
var skippedTags = map[string]bool{
	"script":   true,
	"style":    true,
	"nav":      true,
	"footer":   true,
	"header":   true,
	"aside":    true,
	"noscript": true,
	"iframe":   true,
	"svg":      true,
}

func extractLines(doc *html.Node) []string {
	var lines []string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skippedTags[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				lines = append(lines, text)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return lines
}
