// Package weather provides the get_weather and get_current_datetime tools:
// IP geolocation, geocoding with a keyed primary and keyless fallback, and
// current conditions from Open-Meteo.
package weather

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"googlemaps.github.io/maps"

	"github.com/teslashibe/go-hero/internal/httpc"
)

// Default provider endpoints.
const (
	DefaultIPInfoURL    = "https://ipinfo.io/json"
	DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	DefaultForecastURL  = "https://api.open-meteo.com/v1/forecast"
)

// DefaultLocateTimeout bounds a shared IP lookup.
const DefaultLocateTimeout = 5 * time.Second

// Sentinel errors.
var (
	// ErrCityNotFound is returned when a geocoder has no match for a city.
	ErrCityNotFound = errors.New("weather: city not found")

	// ErrNoCity is returned when the caller's city cannot be detected.
	ErrNoCity = errors.New("weather: city not detected")
)

// Coordinates is a geocoded position.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Conditions is the current weather at a position. Nil fields were absent
// from the provider response.
type Conditions struct {
	Temperature *float64
	WindSpeed   *float64
	Code        *int
}

// Locator detects the caller's city.
type Locator interface {
	City(ctx context.Context) (string, error)
}

// Geocoder resolves a city name to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, city string) (Coordinates, error)
}

// Forecaster fetches current conditions.
type Forecaster interface {
	Current(ctx context.Context, at Coordinates) (Conditions, error)
}

// IPInfo locates the caller from their public IP. Concurrent lookups
// share one request.
type IPInfo struct {
	URL    string
	Client *http.Client

	// Timeout bounds the shared request. Defaults to DefaultLocateTimeout.
	Timeout time.Duration

	group singleflight.Group
}

// City returns the detected city, or ErrNoCity when the response has none.
// The shared request is not tied to any one caller's context; each caller
// stops waiting when its own context ends.
func (l *IPInfo) City(ctx context.Context) (string, error) {
	ch := l.group.DoChan("city", func() (any, error) {
		timeout := l.Timeout
		if timeout <= 0 {
			timeout = DefaultLocateTimeout
		}
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()

		var body struct {
			City string `json:"city"`
		}
		if err := httpc.GetJSON(shared, l.Client, orDefault(l.URL, DefaultIPInfoURL), &body); err != nil {
			return "", fmt.Errorf("weather: locate: %w", err)
		}
		return strings.TrimSpace(body.City), nil
	})

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("weather: locate: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		city := res.Val.(string)
		if city == "" {
			return "", ErrNoCity
		}
		return city, nil
	}
}

// OpenMeteoGeocoder is the keyless geocoder.
type OpenMeteoGeocoder struct {
	URL    string
	Client *http.Client
}

// Geocode returns the first match for city.
func (g *OpenMeteoGeocoder) Geocode(ctx context.Context, city string) (Coordinates, error) {
	var body struct {
		Results []struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"results"`
	}
	u := orDefault(g.URL, DefaultGeocodingURL) + "?name=" + url.QueryEscape(city)
	if err := httpc.GetJSON(ctx, g.Client, u, &body); err != nil {
		return Coordinates{}, fmt.Errorf("weather: geocode: %w", err)
	}
	if len(body.Results) == 0 {
		return Coordinates{}, fmt.Errorf("%w: %s", ErrCityNotFound, city)
	}
	r := body.Results[0]
	return Coordinates{Latitude: r.Latitude, Longitude: r.Longitude}, nil
}

// GoogleGeocoder geocodes with the Google Maps Geocoding API.
type GoogleGeocoder struct {
	client *maps.Client
}

// NewGoogleGeocoder creates a geocoder. baseURL may be empty.
func NewGoogleGeocoder(apiKey, baseURL string) (*GoogleGeocoder, error) {
	opts := []maps.ClientOption{maps.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, maps.WithBaseURL(baseURL))
	}
	c, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("weather: maps client: %w", err)
	}
	return &GoogleGeocoder{client: c}, nil
}

// Geocode returns the first match for city.
func (g *GoogleGeocoder) Geocode(ctx context.Context, city string) (Coordinates, error) {
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: city})
	if err != nil {
		if strings.Contains(err.Error(), "ZERO_RESULTS") {
			return Coordinates{}, fmt.Errorf("%w: %s", ErrCityNotFound, city)
		}
		return Coordinates{}, fmt.Errorf("weather: google geocode: %w", err)
	}
	if len(results) == 0 {
		return Coordinates{}, fmt.Errorf("%w: %s", ErrCityNotFound, city)
	}
	loc := results[0].Geometry.Location
	return Coordinates{Latitude: loc.Lat, Longitude: loc.Lng}, nil
}

// OpenMeteo fetches current conditions.
type OpenMeteo struct {
	URL    string
	Client *http.Client
}

// Current returns the current conditions at a position.
func (f *OpenMeteo) Current(ctx context.Context, at Coordinates) (Conditions, error) {
	var body struct {
		CurrentWeather struct {
			Temperature *float64 `json:"temperature"`
			WindSpeed   *float64 `json:"windspeed"`
			WeatherCode *int     `json:"weathercode"`
		} `json:"current_weather"`
	}
	q := url.Values{}
	q.Set("current_weather", "true")
	q.Set("timezone", "auto")
	q.Set("latitude", fmt.Sprint(at.Latitude))
	q.Set("longitude", fmt.Sprint(at.Longitude))

	if err := httpc.GetJSON(ctx, f.Client, orDefault(f.URL, DefaultForecastURL)+"?"+q.Encode(), &body); err != nil {
		return Conditions{}, fmt.Errorf("weather: forecast: %w", err)
	}
	cw := body.CurrentWeather
	return Conditions{Temperature: cw.Temperature, WindSpeed: cw.WindSpeed, Code: cw.WeatherCode}, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
