package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/teslashibe/go-hero/internal/httpc"
	"github.com/teslashibe/go-hero/pkg/fallback"
	"github.com/teslashibe/go-hero/pkg/tools"
)

// Unavailable is returned when neither provider can answer.
const Unavailable = "Search is unavailable right now."

// Service owns the provider pair behind the search tools.
type Service struct {
	Primary         Searcher
	KeylessSearcher Searcher
	Timeout         time.Duration
	Resolver        *fallback.Resolver
	Logger          *slog.Logger
}

// Keyless runs the keyless provider and renders its outcome. Errors are
// reported in the result text.
func (s *Service) Keyless(ctx context.Context, query string) tools.Result {
	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	results, err := s.KeylessSearcher.Search(ctx, query)
	if err != nil {
		s.logger().Error("search tool error", "error", err)
		return tools.Failed("Search failed: "+err.Error(), err)
	}
	if len(results) == 0 {
		return tools.OK("No relevant results found online.")
	}
	return tools.OK(Summarize("Internet search results", query, results))
}

// Answer resolves a query through the keyed provider, falling back to
// exactly the keyless answer.
func (s *Service) Answer(ctx context.Context, query string) string {
	primary := fallback.Provider[string]{Name: "google", Timeout: s.timeout()}
	if s.Primary != nil {
		primary.Fetch = func(ctx context.Context) (string, error) {
			s.logger().Info("searching google", "query", query)
			results, err := s.Primary.Search(ctx, query)
			if err != nil {
				return "", err
			}
			return Summarize("Google search results", query, results), nil
		}
	}
	secondary := fallback.Provider[string]{
		Name: "duckduckgo",
		Fetch: func(ctx context.Context) (string, error) {
			return s.Keyless(ctx, query).Text, nil
		},
	}
	return fallback.Text(ctx, s.Resolver, primary, secondary, Unavailable)
}

func (s *Service) timeout() time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return httpc.SearchTimeout
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Tools returns search_internet and search_tool.
func (s *Service) Tools() []tools.Tool {
	query := tools.Req("query", tools.TypeString, "What to search for.")
	return []tools.Tool{
		{
			Descriptor: tools.Descriptor{
				Name:        "search_internet",
				Description: "Search the internet for current information. Uses Google when configured and falls back to DuckDuckGo.",
				Params:      []tools.Param{query},
			},
			Handler: func(ctx context.Context, args tools.Args) tools.Result {
				return tools.OK(s.Answer(ctx, args.String("query")))
			},
		},
		{
			Descriptor: tools.Descriptor{
				Name:        "search_tool",
				Description: "Search the internet with DuckDuckGo (no API key needed).",
				Params:      []tools.Param{query},
			},
			Handler: func(ctx context.Context, args tools.Args) tools.Result {
				return s.Keyless(ctx, args.String("query"))
			},
		},
	}
}
