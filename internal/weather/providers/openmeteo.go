package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/i474232898/weather-map/internal/weather"
	"github.com/sony/gobreaker"
)

// API Docs: https://open-meteo.com/en/docs
// Sample request: https://api.open-meteo.com/v1/forecast?latitude=41.3851&longitude=2.1734&current_weather=true
const DefaultOpenMeteoURL = "https://api.open-meteo.com/v1/forecast"

// OpenMeteoOptions tunes the Open-Meteo provider.
type OpenMeteoOptions struct {
	BaseURL string
	// IncludeHourly also requests hourly=temperature_2m,weathercode. The series is
	// not used for classification.
	IncludeHourly bool
	Backoff       BackoffConfig
	// Breaker tunes the circuit breaker; zero values take the defaults.
	Breaker BreakerConfig
}

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
type OpenMeteoProvider struct {
	name          string
	baseURL       string
	includeHourly bool
	httpCfg       HTTPClientConfig
	circuit       *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client, opts OpenMeteoOptions) *OpenMeteoProvider {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultOpenMeteoURL
	}

	return &OpenMeteoProvider{
		name:          "openmeteo",
		baseURL:       baseURL,
		includeHourly: opts.IncludeHourly,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: opts.Backoff,
		},
		circuit: newCircuitBreaker("openmeteo", opts.Breaker),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

type openMeteoResponse struct {
	// Pointer so an absent object is distinguishable from zero values.
	CurrentWeather *struct {
		Temperature *float64 `json:"temperature"`
		WindSpeed   float64  `json:"windspeed"`
		Time        string   `json:"time"`
		WeatherCode *int     `json:"weathercode"`
	} `json:"current_weather"`
}

func (p *OpenMeteoProvider) Fetch(ctx context.Context, c weather.Coordinate) (weather.Reading, error) {
	if err := c.Validate(); err != nil {
		return weather.Reading{}, err
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(c.Latitude, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(c.Longitude, 'f', -1, 64))
		values.Set("current_weather", "true")
		if p.includeHourly {
			values.Set("hourly", "temperature_2m,weathercode")
		}

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.Reading{}, err
	}
	defer resp.Body.Close()

	var payload openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Reading{}, fmt.Errorf("failed to decode response: %w", err)
	}

	cw := payload.CurrentWeather
	if cw == nil || cw.WeatherCode == nil || cw.Temperature == nil {
		return weather.Reading{}, weather.ErrNoObservation
	}

	// Open-Meteo reports current_weather.time as ISO8601 without seconds, in GMT.
	ts, err := time.Parse("2006-01-02T15:04", cw.Time)
	if err != nil {
		ts = time.Now().UTC()
	}

	return weather.Reading{
		ObservedAt:   ts.UTC(),
		WeatherCode:  *cw.WeatherCode,
		TemperatureC: *cw.Temperature,
	}, nil
}
