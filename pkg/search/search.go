// Package search answers free-text queries from a keyed provider (Google
// Custom Search) with a keyless provider (DuckDuckGo) as fallback.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// MaxResults is the number of results summarised per query.
const MaxResults = 3

// Sentinel errors.
var (
	// ErrNoCredentials is returned by the keyed provider when its API key
	// or engine id is missing.
	ErrNoCredentials = errors.New("search: missing credentials")

	// ErrNoResults is returned when a provider finds nothing.
	ErrNoResults = errors.New("search: no results")
)

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Searcher runs a query against one provider.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// Summarize renders results as "<header> for '<query>':" followed by one
// "<title>: <snippet>" line per result.
func Summarize(header, query string, results []Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s for '%s':", header, query)
	for i, r := range results {
		if i == MaxResults {
			break
		}
		b.WriteString("\n")
		b.WriteString(r.Title)
		b.WriteString(": ")
		b.WriteString(r.Snippet)
	}
	return b.String()
}
