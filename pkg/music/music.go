// Package music opens Spotify on a requested or random trending song.
package music

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/browser"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/teslashibe/go-hero/internal/httpc"
	"github.com/teslashibe/go-hero/pkg/fallback"
	"github.com/teslashibe/go-hero/pkg/tools"
)

// Spotify endpoints.
const (
	DefaultTokenURL = "https://accounts.spotify.com/api/token"
	DefaultAPIURL   = "https://api.spotify.com/v1"
	WebURL          = "https://open.spotify.com"
)

// Trending is the fixed list random requests pick from.
var Trending = []string{
	"Calm Down Rema",
	"As It Was Harry Styles",
	"Blinding Lights The Weeknd",
	"Flowers Miley Cyrus",
}

// ErrTrackNotFound is returned when track lookup has no match.
var ErrTrackNotFound = errors.New("music: track not found")

// SearchURL is the Spotify web search page for a song.
func SearchURL(song string) string {
	return WebURL + "/search/" + url.PathEscape(song)
}

// Spotify looks up tracks with the Web API using client credentials.
type Spotify struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	APIURL       string

	// Client is the base transport for token and API calls.
	Client *http.Client
}

// Configured reports whether both credentials are present.
func (s *Spotify) Configured() bool {
	return s != nil && s.ClientID != "" && s.ClientSecret != ""
}

// TrackURL returns the open.spotify.com URL of the best match for song.
func (s *Spotify) TrackURL(ctx context.Context, song string) (string, error) {
	base := s.Client
	if base == nil {
		base = httpc.NewClient(httpc.SearchTimeout)
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)

	cfg := clientcredentials.Config{
		ClientID:     s.ClientID,
		ClientSecret: s.ClientSecret,
		TokenURL:     orDefault(s.TokenURL, DefaultTokenURL),
	}

	q := url.Values{}
	q.Set("q", song)
	q.Set("type", "track")
	q.Set("limit", "1")

	var body struct {
		Tracks struct {
			Items []struct {
				ID string `json:"id"`
			} `json:"items"`
		} `json:"tracks"`
	}
	if err := httpc.GetJSON(ctx, cfg.Client(ctx), orDefault(s.APIURL, DefaultAPIURL)+"/search?"+q.Encode(), &body); err != nil {
		return "", fmt.Errorf("music: spotify search: %w", err)
	}
	if len(body.Tracks.Items) == 0 || body.Tracks.Items[0].ID == "" {
		return "", ErrTrackNotFound
	}
	return WebURL + "/track/" + body.Tracks.Items[0].ID, nil
}

// Player resolves a song and opens it.
type Player struct {
	// Spotify is optional; without credentials the search URL is used.
	Spotify *Spotify

	// Open launches a URL. Defaults to the system browser.
	Open func(url string) error

	// Pick chooses an index in [0, n). Defaults to a uniform random pick.
	Pick func(n int) int

	Timeout  time.Duration
	Resolver *fallback.Resolver
	Logger   *slog.Logger
}

// Choose returns the song to play for query.
func (p *Player) Choose(query string) string {
	if strings.TrimSpace(query) != "" && !strings.Contains(strings.ToLower(query), "random") {
		return query
	}
	pick := p.Pick
	if pick == nil {
		pick = rand.Intn
	}
	song := Trending[pick(len(Trending))]
	p.logger().Info("playing random trending song", "song", song)
	return song
}

// Target returns the URL to open for song.
func (p *Player) Target(ctx context.Context, song string) string {
	primary := fallback.Provider[string]{Name: "spotify-api", Timeout: p.Timeout}
	if p.Spotify.Configured() {
		primary.Fetch = func(ctx context.Context) (string, error) {
			return p.Spotify.TrackURL(ctx, song)
		}
	}
	secondary := fallback.Provider[string]{
		Name:  "spotify-search",
		Fetch: func(context.Context) (string, error) { return SearchURL(song), nil },
	}
	return fallback.Text(ctx, p.Resolver, primary, secondary, SearchURL(song))
}

// Play opens Spotify on the chosen song.
func (p *Player) Play(ctx context.Context, query string) tools.Result {
	song := p.Choose(query)
	target := p.Target(ctx, song)

	open := p.Open
	if open == nil {
		open = browser.OpenURL
	}
	if err := open(target); err != nil {
		p.logger().Error("error playing music", "error", err)
		return tools.Failed("Sorry, I couldn't open Spotify.", err)
	}
	return tools.OK(fmt.Sprintf("Playing %s on Spotify...", song))
}

func (p *Player) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger.With("component", "music")
	}
	return slog.Default().With("component", "music")
}

// Tools returns play_spotify_music.
func (p *Player) Tools() []tools.Tool {
	return []tools.Tool{{
		Descriptor: tools.Descriptor{
			Name:        "play_spotify_music",
			Description: "Opens Spotify and plays a requested song, or a random trending song when none is given.",
			Params: []tools.Param{
				tools.P("query", tools.TypeString, "Song to play. Optional.", nil),
			},
		},
		Handler: func(ctx context.Context, args tools.Args) tools.Result {
			return p.Play(ctx, args.String("query"))
		},
	}}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
