package hero

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teslashibe/go-hero/internal/config"
	"github.com/teslashibe/go-hero/pkg/apps"
	"github.com/teslashibe/go-hero/pkg/blocking"
	"github.com/teslashibe/go-hero/pkg/desktop"
	"github.com/teslashibe/go-hero/pkg/fallback"
	"github.com/teslashibe/go-hero/pkg/macro"
	"github.com/teslashibe/go-hero/pkg/music"
	"github.com/teslashibe/go-hero/pkg/ocr"
	"github.com/teslashibe/go-hero/pkg/search"
	"github.com/teslashibe/go-hero/pkg/tools"
	"github.com/teslashibe/go-hero/pkg/weather"
)

// ToolOrder is the order tools are declared to the voice runtime.
var ToolOrder = []string{
	"search_internet",
	"get_current_datetime",
	"get_weather",
	"search_tool",
	"play_spotify_music",
	"type_text",
	"press_key",
	"hotkey",
	"move_mouse",
	"click_mouse",
	"scroll",
	"read_screen",
	"open_app",
	"macro",
}

// ToolsConfig holds dependencies for the tools. Nil fields get the real
// implementations.
type ToolsConfig struct {
	Settings *config.Config
	Logger   *slog.Logger
	Metrics  *tools.Metrics

	Driver  desktop.Driver
	OCR     desktop.Recognizer
	Start   apps.Starter
	OpenURL func(url string) error
}

// Tools builds every tool in ToolOrder, followed by the system-control
// tools when enabled.
func Tools(cfg ToolsConfig) []tools.Tool {
	s := cfg.Settings
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	searcher := &search.Service{
		KeylessSearcher: &search.DuckDuckGo{},
		Timeout:         s.Search.Timeout,
		Resolver:        fallback.New("search", logger, cfg.Metrics),
		Logger:          logger,
	}
	if s.HasSearchCredentials() {
		searcher.Primary = &search.Google{APIKey: s.Search.APIKey, EngineID: s.Search.EngineID}
	}

	forecast := &weather.Service{
		Locator:    &weather.IPInfo{},
		Keyless:    &weather.OpenMeteoGeocoder{},
		Forecaster: &weather.OpenMeteo{},
		Timeout:    s.Weather.Timeout,
		Resolver:   fallback.New("weather", logger, cfg.Metrics),
		Logger:     logger,
	}
	if s.Weather.MapsAPIKey != "" {
		g, err := weather.NewGoogleGeocoder(s.Weather.MapsAPIKey, "")
		if err != nil {
			logger.Warn("google geocoder disabled", "error", err)
		} else {
			forecast.Geocoder = g
		}
	}

	player := &music.Player{
		Open:     cfg.OpenURL,
		Timeout:  s.Search.Timeout,
		Resolver: fallback.New("music", logger, cfg.Metrics),
		Logger:   logger,
	}
	if s.HasSpotifyCredentials() {
		player.Spotify = &music.Spotify{ClientID: s.Spotify.ClientID, ClientSecret: s.Spotify.ClientSecret}
	}

	driver := cfg.Driver
	if driver == nil {
		d, err := desktop.NewRobotDriver()
		if err != nil {
			logger.Warn("desktop automation unavailable", "error", err)
			d = desktop.Unsupported{Err: err}
		}
		driver = d
	}
	recognizer := cfg.OCR
	if recognizer == nil {
		recognizer = ocr.New(s.Desktop.OCRLanguage)
	}
	adapter := blocking.New(blocking.Config{
		Workers:   s.Desktop.Workers,
		Serialize: s.Desktop.SerializeInput,
		Logger:    logger,
	})
	controller := desktop.NewController(driver, recognizer, adapter, logger)
	launcher := apps.NewLauncher(cfg.Start, logger)
	macros := macro.New(macroActions{launcher: launcher, desktop: controller}, logger)

	var all []tools.Tool
	all = append(all, searcher.Tools()...)
	all = append(all, forecast.Tools()...)
	all = append(all, player.Tools()...)
	all = append(all, controller.Tools()...)
	all = append(all, launcher.Tools()...)
	all = append(all, macros.Tools()...)

	out := ordered(all, ToolOrder)
	if s.SystemTools {
		system := apps.NewSystem(logger)
		system.Start = cfg.Start
		out = append(out, system.Tools()...)
	}
	return out
}

// ordered returns ts sorted by names. Tools missing from names keep their
// relative order after the named ones.
func ordered(ts []tools.Tool, names []string) []tools.Tool {
	byName := make(map[string]tools.Tool, len(ts))
	for _, t := range ts {
		byName[t.Name] = t
	}
	out := make([]tools.Tool, 0, len(ts))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if t, ok := byName[n]; ok {
			out = append(out, t)
			seen[n] = true
		}
	}
	for _, t := range ts {
		if !seen[t.Name] {
			out = append(out, t)
		}
	}
	return out
}

// macroActions lets macros reuse the open_app, type_text and press_key
// behaviour.
type macroActions struct {
	launcher *apps.Launcher
	desktop  *desktop.Controller
}

func (m macroActions) OpenApp(app string) tools.Result {
	return m.launcher.Open(app)
}

func (m macroActions) TypeText(ctx context.Context, text string) tools.Result {
	return m.desktop.Type(ctx, text, false, desktop.DefaultTypeInterval.Seconds())
}

func (m macroActions) PressKey(ctx context.Context, key string) tools.Result {
	return m.desktop.Press(ctx, key)
}

// NewRegistry registers tools in a fresh registry.
func NewRegistry(cfg ToolsConfig) (*tools.Registry, error) {
	r := tools.NewRegistry(tools.WithLogger(cfg.Logger), tools.WithMetrics(cfg.Metrics))
	if err := r.Register(Tools(cfg)...); err != nil {
		return nil, fmt.Errorf("hero: register tools: %w", err)
	}
	return r, nil
}
