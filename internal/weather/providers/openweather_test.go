package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tj/assert"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const currentBody = `{
  "coord": {"lon": -0.1257, "lat": 51.5085},
  "weather": [{"id": 500, "main": "Rain", "description": "light rain", "icon": "10d"}],
  "main": {"temp": 15.2, "feels_like": 14.1, "pressure": 1012, "humidity": 81},
  "wind": {"speed": 4.6, "deg": 240},
  "name": "London",
  "sys": {"country": "GB"}
}`

const forecastBody = `{
  "timezone": "Europe/London",
  "current": {"dt": 1714560000, "temp": 15.0, "feels_like": 13.7, "pressure": 1012, "humidity": 80,
              "wind_speed": 4.1, "wind_deg": 230, "sunrise": 1714536000, "sunset": 1714590000,
              "weather": [{"id": 803, "main": "Clouds", "description": "broken clouds", "icon": "04d"}]},
  "hourly": [{"dt": 1714560000, "temp": 15.0, "pop": 0.2, "weather": [{"icon": "10d"}]}],
  "daily": [{"dt": 1714560000, "sunrise": 1714536000, "sunset": 1714590000,
             "temp": {"min": 9.1, "max": 17.3}, "weather": [{"icon": "01d"}]}]
}`

type recorder struct {
	mu      sync.Mutex
	queries []url.Values
	paths   []string
}

func newServer(t *testing.T, rec *recorder, handler func(w http.ResponseWriter, r *http.Request)) *OpenWeatherProvider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.mu.Lock()
		rec.queries = append(rec.queries, r.URL.Query())
		rec.paths = append(rec.paths, r.URL.Path)
		rec.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	return NewOpenWeatherProvider(&http.Client{Timeout: 2 * time.Second}, OpenWeatherConfig{
		APIKey:   "secret",
		BaseURL:  srv.URL + "/",
		Language: "en",
	})
}

func TestCurrentByCitySendsFixedParams(t *testing.T) {
	rec := &recorder{}
	p := newServer(t, rec, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(currentBody))
	})

	raw, err := p.CurrentByCity(context.Background(), "London")
	assert.NoError(t, err)

	assert.Equal(t, "/data/2.5/weather", rec.paths[0])
	q := rec.queries[0]
	assert.Equal(t, "London", q.Get("q"))
	assert.Equal(t, "secret", q.Get("appid"))
	assert.Equal(t, "metric", q.Get("units"))
	assert.Equal(t, "en", q.Get("lang"))

	assert.Equal(t, "London", raw.Name)
	assert.Equal(t, "GB", raw.Sys.Country)
	assert.Equal(t, 1012.0, raw.Main.Pressure)
	assert.Equal(t, weather.Coordinate{Latitude: 51.5085, Longitude: -0.1257}, raw.Coordinate())
}

func TestForecastExcludesMinutelyAndAlerts(t *testing.T) {
	rec := &recorder{}
	p := newServer(t, rec, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(forecastBody))
	})

	raw, err := p.Forecast(context.Background(), weather.Coordinate{Latitude: 51.5085, Longitude: -0.1257})
	assert.NoError(t, err)

	assert.Equal(t, "/data/2.5/onecall", rec.paths[0])
	q := rec.queries[0]
	assert.Equal(t, "minutely,alerts", q.Get("exclude"))
	assert.Equal(t, "51.5085", q.Get("lat"))
	assert.Equal(t, "-0.1257", q.Get("lon"))

	assert.Equal(t, 13.7, raw.Current.FeelsLike)
	assert.Len(t, raw.Hourly, 1)
	assert.Equal(t, 17.3, raw.Daily[0].Temp.Max)
}

func TestNotFoundIsHTTPStatusError(t *testing.T) {
	p := newServer(t, &recorder{}, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
	})

	_, err := p.CurrentByCity(context.Background(), "Atlantis")

	var statusErr *weather.HTTPStatusError
	assert.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, "city not found", statusErr.Message)
	assert.Equal(t, "current weather: request failed (404): city not found", err.Error())
}

func TestServerErrorIsHTTPStatusError(t *testing.T) {
	rec := &recorder{}
	p := newServer(t, rec, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := p.Forecast(context.Background(), weather.Coordinate{})

	var statusErr *weather.HTTPStatusError
	assert.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	// single attempt, no retries
	assert.Len(t, rec.paths, 1)
}

func TestMalformedBodyIsDecodeError(t *testing.T) {
	p := newServer(t, &recorder{}, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"coord": [1, 2]`))
	})

	_, err := p.CurrentByCity(context.Background(), "London")
	var decodeErr *weather.DecodeError
	assert.True(t, errors.As(err, &decodeErr))
}

func TestMissingSectionIsDecodeError(t *testing.T) {
	p := newServer(t, &recorder{}, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"coord": {"lon": 1, "lat": 2}, "weather": [], "name": "x"}`))
	})

	_, err := p.CurrentByCity(context.Background(), "x")
	var decodeErr *weather.DecodeError
	assert.True(t, errors.As(err, &decodeErr))
}

func TestEmptyWeatherListIsNotAnError(t *testing.T) {
	p := newServer(t, &recorder{}, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"coord": {"lon": 1, "lat": 2}, "weather": [], "main": {"temp": 1},
			"wind": {"speed": 1}, "name": "x", "sys": {}}`))
	})

	raw, err := p.CurrentByCoordinate(context.Background(), weather.Coordinate{Latitude: 2, Longitude: 1})
	assert.NoError(t, err)
	assert.Empty(t, raw.Weather)
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	p := NewOpenWeatherProvider(&http.Client{Timeout: time.Second}, OpenWeatherConfig{APIKey: "SUPERSECRETKEY", BaseURL: srv.URL})
	_, err := p.CurrentByCity(context.Background(), "London")

	var transportErr *weather.TransportError
	assert.True(t, errors.As(err, &transportErr))
	// the request URL carries the credential and must not leak into messages
	assert.False(t, strings.Contains(err.Error(), "SUPERSECRETKEY"))
	assert.False(t, strings.Contains(err.Error(), "appid"))
}

func TestCancelledCallsDoNotOpenBreaker(t *testing.T) {
	var mu sync.Mutex
	slow := true
	rec := &recorder{}
	p := newServer(t, rec, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		wait := slow
		mu.Unlock()
		if wait {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
			return
		}
		_, _ = w.Write([]byte(currentBody))
	})

	for i := 0; i < 8; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		_, err := p.CurrentByCity(ctx, "London")
		cancel()
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	}

	mu.Lock()
	slow = false
	mu.Unlock()

	raw, err := p.CurrentByCity(context.Background(), "London")
	assert.NoError(t, err)
	assert.Equal(t, "London", raw.Name)
}

func TestAlreadyCancelledCallSkipsNetwork(t *testing.T) {
	rec := &recorder{}
	p := newServer(t, rec, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(currentBody))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.CurrentByCity(ctx, "London")
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, rec.paths)
}

func TestServerErrorsOpenBreaker(t *testing.T) {
	rec := &recorder{}
	p := newServer(t, rec, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < 6; i++ {
		_, err := p.CurrentByCity(context.Background(), "London")
		var statusErr *weather.HTTPStatusError
		assert.True(t, errors.As(err, &statusErr))
	}

	_, err := p.CurrentByCity(context.Background(), "London")
	var transportErr *weather.TransportError
	assert.True(t, errors.As(err, &transportErr))
	assert.Len(t, rec.paths, 6)
}

func TestReverseGeocode(t *testing.T) {
	rec := &recorder{}
	body := `[{"name": "London", "local_names": {"en": "London", "fr": "Londres"}, "lat": 51.5, "lon": -0.12, "country": "GB", "state": "England"}]`
	p := newServer(t, rec, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	})

	place, err := p.ReverseGeocode(context.Background(), weather.Coordinate{Latitude: 51.5, Longitude: -0.12})
	assert.NoError(t, err)
	assert.Equal(t, "/geo/1.0/reverse", rec.paths[0])
	assert.Equal(t, "1", rec.queries[0].Get("limit"))
	assert.Equal(t, &weather.PlaceRaw{Locality: "London", Region: "England", Country: "GB"}, place)
}

func TestReverseGeocodeNoPlace(t *testing.T) {
	p := newServer(t, &recorder{}, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	place, err := p.ReverseGeocode(context.Background(), weather.Coordinate{})
	assert.NoError(t, err)
	assert.Nil(t, place)
}
