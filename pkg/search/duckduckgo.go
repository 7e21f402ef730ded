package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/teslashibe/go-hero/internal/httpc"
)

// DefaultDuckDuckGoEndpoint is the HTML (no-JS) results page.
const DefaultDuckDuckGoEndpoint = "https://html.duckduckgo.com/html/"

// DuckDuckGo scrapes the keyless HTML results page.
type DuckDuckGo struct {
	Endpoint string
	Client   *http.Client
}

// Search returns up to MaxResults hits. No hits is not an error.
func (d *DuckDuckGo) Search(ctx context.Context, query string) ([]Result, error) {
	endpoint := d.Endpoint
	if endpoint == "" {
		endpoint = DefaultDuckDuckGoEndpoint
	}
	client := d.Client
	if client == nil {
		client = httpc.NewClient(httpc.SearchTimeout)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, fmt.Errorf("search: build request: %w", err)
	}
	req.Header.Set("User-Agent", httpc.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: duckduckgo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search: duckduckgo returned %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("search: parse results: %w", err)
	}

	var out []Result
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		title := strings.TrimSpace(s.Find(".result__a").First().Text())
		if title == "" {
			return true
		}
		out = append(out, Result{
			Title:   title,
			Snippet: strings.TrimSpace(s.Find(".result__snippet").First().Text()),
		})
		return len(out) < MaxResults
	})
	return out, nil
}
