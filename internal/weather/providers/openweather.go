package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const DefaultOpenWeatherBaseURL = "https://api.openweathermap.org"

// OpenWeatherConfig is injected at construction; nothing about the endpoint or
// credential is hard-coded.
type OpenWeatherConfig struct {
	APIKey   string
	BaseURL  string
	Language string
}

// OpenWeatherProvider implements weather.Client and weather.Geocoder for
// OpenWeatherMap. Every call is a single attempt.
type OpenWeatherProvider struct {
	cfg     OpenWeatherConfig
	client  *http.Client
	current *gobreaker.CircuitBreaker
	onecall *gobreaker.CircuitBreaker
	geo     *gobreaker.CircuitBreaker
}

// NewOpenWeatherProvider creates a provider. The per-call timeout is the
// client's Timeout.
func NewOpenWeatherProvider(client *http.Client, cfg OpenWeatherConfig) *OpenWeatherProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenWeatherBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &OpenWeatherProvider{
		cfg:     cfg,
		client:  client,
		current: newBreaker("openweather-current"),
		onecall: newBreaker("openweather-onecall"),
		geo:     newBreaker("openweather-geo"),
	}
}

func (p *OpenWeatherProvider) CurrentByCity(ctx context.Context, city string) (weather.CurrentRaw, error) {
	values := url.Values{}
	values.Set("q", city)
	return p.fetchCurrent(ctx, values)
}

func (p *OpenWeatherProvider) CurrentByCoordinate(ctx context.Context, coord weather.Coordinate) (weather.CurrentRaw, error) {
	return p.fetchCurrent(ctx, coordValues(coord))
}

func (p *OpenWeatherProvider) fetchCurrent(ctx context.Context, values url.Values) (weather.CurrentRaw, error) {
	const op = "current weather"

	var payload weather.CurrentRaw
	req, err := p.newRequest("/data/2.5/weather", values)
	if err != nil {
		return payload, &weather.TransportError{Op: op, Err: err}
	}

	resp, err := doRequest(ctx, p.client, p.current, op, req)
	if err != nil {
		return payload, err
	}
	if err := decodeStrict(op, resp, &payload); err != nil {
		return weather.CurrentRaw{}, err
	}
	return payload, nil
}

func (p *OpenWeatherProvider) Forecast(ctx context.Context, coord weather.Coordinate) (weather.ForecastRaw, error) {
	const op = "forecast"

	values := coordValues(coord)
	values.Set("exclude", "minutely,alerts")

	var payload weather.ForecastRaw
	req, err := p.newRequest("/data/2.5/onecall", values)
	if err != nil {
		return payload, &weather.TransportError{Op: op, Err: err}
	}

	resp, err := doRequest(ctx, p.client, p.onecall, op, req)
	if err != nil {
		return payload, err
	}
	if err := decodeStrict(op, resp, &payload); err != nil {
		return weather.ForecastRaw{}, err
	}
	return payload, nil
}

// ReverseGeocode returns the first place for coord, or nil when there is none.
func (p *OpenWeatherProvider) ReverseGeocode(ctx context.Context, coord weather.Coordinate) (*weather.PlaceRaw, error) {
	const op = "reverse geocode"

	values := coordValues(coord)
	values.Set("limit", "1")

	req, err := p.newRequest("/geo/1.0/reverse", values)
	if err != nil {
		return nil, &weather.TransportError{Op: op, Err: err}
	}

	resp, err := doRequest(ctx, p.client, p.geo, op, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var places []struct {
		Name       string            `json:"name"`
		LocalNames map[string]string `json:"local_names"`
		State      string            `json:"state"`
		Country    string            `json:"country"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, &weather.DecodeError{Op: op, Err: err}
	}
	if len(places) == 0 {
		return nil, nil
	}

	first := places[0]
	locality := first.Name
	if local, ok := first.LocalNames[p.cfg.Language]; ok && local != "" {
		locality = local
	}
	return &weather.PlaceRaw{
		Locality: locality,
		Region:   first.State,
		Country:  first.Country,
	}, nil
}

// newRequest builds a GET with the fixed credential, unit and language params.
func (p *OpenWeatherProvider) newRequest(path string, values url.Values) (*http.Request, error) {
	values.Set("appid", p.cfg.APIKey)
	values.Set("units", "metric")
	if p.cfg.Language != "" {
		values.Set("lang", p.cfg.Language)
	}

	u := fmt.Sprintf("%s%s?%s", p.cfg.BaseURL, path, values.Encode())
	return http.NewRequest(http.MethodGet, u, nil)
}

func coordValues(coord weather.Coordinate) url.Values {
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(coord.Latitude, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(coord.Longitude, 'f', -1, 64))
	return values
}
