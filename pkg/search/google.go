package search

import (
	"context"
	"fmt"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/teslashibe/go-hero/internal/httpc"
)

// Google queries the Custom Search JSON API.
type Google struct {
	APIKey   string
	EngineID string

	// Endpoint overrides the API base URL (tests).
	Endpoint string
}

// Configured reports whether both credentials are present.
func (g *Google) Configured() bool {
	return g != nil && g.APIKey != "" && g.EngineID != ""
}

// Search returns up to MaxResults hits.
func (g *Google) Search(ctx context.Context, query string) ([]Result, error) {
	if !g.Configured() {
		return nil, ErrNoCredentials
	}

	// WithHTTPClient would drop the API key, so the deadline comes from ctx.
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, httpc.SearchTimeout)
		defer cancel()
	}
	opts := []option.ClientOption{option.WithAPIKey(g.APIKey)}
	if g.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.Endpoint))
	}

	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("search: google client: %w", err)
	}

	resp, err := svc.Cse.List().
		Cx(g.EngineID).
		Q(query).
		Num(MaxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("search: google: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, ErrNoResults
	}

	out := make([]Result, 0, len(resp.Items))
	for _, item := range resp.Items {
		snippet := item.Snippet
		if snippet == "" {
			snippet = "No description"
		}
		out = append(out, Result{Title: item.Title, Snippet: snippet})
	}
	return out, nil
}
