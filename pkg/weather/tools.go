package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/teslashibe/go-hero/internal/httpc"
	"github.com/teslashibe/go-hero/pkg/fallback"
	"github.com/teslashibe/go-hero/pkg/tools"
)

// DateTimeLayout formats the current time as YYYY-MM-DD HH:MM:SS.
const DateTimeLayout = "2006-01-02 15:04:05"

// Service answers weather and datetime queries.
type Service struct {
	Locator    Locator
	Geocoder   Geocoder // keyed primary, may be nil
	Keyless    Geocoder
	Forecaster Forecaster

	// Timeout bounds each provider call.
	Timeout  time.Duration
	Resolver *fallback.Resolver
	Logger   *slog.Logger

	// Now returns the wall clock. Defaults to time.Now.
	Now func() time.Time
}

// DateTime returns the formatted wall-clock time.
func (s *Service) DateTime() tools.Result {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	current := now().Format(DateTimeLayout)
	s.logger().Info("current datetime fetched", "datetime", current)
	return tools.OK("The current date and time is " + current)
}

// Weather reports the current temperature and wind for city, detecting
// the caller's city when it is empty.
func (s *Service) Weather(ctx context.Context, city string) tools.Result {
	logger := s.logger()

	if city == "" {
		logger.Info("city not provided, attempting auto-detect")
		detected, err := s.locate(ctx)
		if err != nil && !errors.Is(err, ErrNoCity) {
			logger.Error("weather lookup failed", "error", err)
			return tools.Failed("An error occurred while fetching weather data: "+err.Error(), err)
		}
		city = detected
		logger.Info("auto-detected city", "city", city)
	}
	if city == "" {
		logger.Warn("could not auto-detect city")
		return tools.Failed("Sorry, I couldn't detect your city automatically.", ErrNoCity)
	}

	coords, err := s.geocode(ctx, city)
	if errors.Is(err, ErrCityNotFound) {
		logger.Error("city not found", "city", city)
		return tools.Failed(fmt.Sprintf("Sorry, I couldn't find weather data for %s.", city), err)
	}
	if err != nil {
		logger.Error("weather lookup failed", "city", city, "error", err)
		return tools.Failed("An error occurred while fetching weather data: "+err.Error(), err)
	}
	logger.Info("coordinates resolved", "city", city, "lat", coords.Latitude, "lon", coords.Longitude)

	fctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()
	cond, err := s.Forecaster.Current(fctx, coords)
	if err != nil {
		logger.Error("weather lookup failed", "city", city, "error", err)
		return tools.Failed("An error occurred while fetching weather data: "+err.Error(), err)
	}
	if cond.Temperature == nil {
		return tools.Failed(fmt.Sprintf("Sorry, I couldn't fetch the weather data for %s right now.", city), nil)
	}

	logger.Info("weather fetched", "city", city, "temp", *cond.Temperature, "wind", cond.WindSpeed, "code", cond.Code)
	return tools.OK(fmt.Sprintf("The current temperature in %s is %s°C with a wind speed of %s km/h.",
		city, decimal(cond.Temperature), decimal(cond.WindSpeed)))
}

func (s *Service) locate(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()
	return s.Locator.City(ctx)
}

func (s *Service) geocode(ctx context.Context, city string) (Coordinates, error) {
	primary := fallback.Provider[Coordinates]{Name: "google-maps", Timeout: s.timeout()}
	if s.Geocoder != nil {
		primary.Fetch = func(ctx context.Context) (Coordinates, error) {
			return s.Geocoder.Geocode(ctx, city)
		}
	}
	secondary := fallback.Provider[Coordinates]{
		Name:    "open-meteo",
		Timeout: s.timeout(),
		Fetch: func(ctx context.Context) (Coordinates, error) {
			return s.Keyless.Geocode(ctx, city)
		},
	}
	coords, _, err := fallback.Resolve(ctx, s.Resolver, primary, secondary, nil)
	return coords, err
}

func (s *Service) timeout() time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return httpc.WeatherTimeout
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger.With("component", "weather")
	}
	return slog.Default().With("component", "weather")
}

// decimal renders a reading with at least one decimal place, e.g. 24.0.
func decimal(v *float64) string {
	if v == nil {
		return "None"
	}
	s := strconv.FormatFloat(*v, 'f', -1, 64)
	for _, c := range s {
		if c == '.' {
			return s
		}
	}
	return s + ".0"
}

// Tools returns get_current_datetime and get_weather.
func (s *Service) Tools() []tools.Tool {
	return []tools.Tool{
		{
			Descriptor: tools.Descriptor{
				Name:        "get_current_datetime",
				Description: "Returns the current system date and time.",
			},
			Handler: func(context.Context, tools.Args) tools.Result {
				return s.DateTime()
			},
		},
		{
			Descriptor: tools.Descriptor{
				Name:        "get_weather",
				Description: "Returns real-time weather for a city. Detects the user's city from their IP when none is given.",
				Params: []tools.Param{
					tools.P("city", tools.TypeString, "City name. Optional.", nil),
				},
			},
			Handler: func(ctx context.Context, args tools.Args) tools.Result {
				return s.Weather(ctx, args.String("city"))
			},
		},
	}
}
