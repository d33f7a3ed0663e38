package providers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

var errNoGoogleKey = errors.New("google geocoder api key is not configured")

// defaultGoogleTimeout applies when no timeout is configured.
const defaultGoogleTimeout = 20 * time.Second

// The geocoder package keeps its key in a package variable.
var googleKeyMu sync.Mutex

type GoogleConfig struct {
	APIKey   string
	Language string
	// Timeout bounds each lookup; the geocoder package's own client has none.
	Timeout time.Duration
}

// GoogleGeocoder implements weather.Geocoder with the Google Geocoding API.
type GoogleGeocoder struct {
	cfg     GoogleConfig
	reverse func(geocoder.Location, string) ([]geocoder.Address, error)
}

func NewGoogleGeocoder(cfg GoogleConfig) *GoogleGeocoder {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultGoogleTimeout
	}
	return &GoogleGeocoder{
		cfg:     cfg,
		reverse: geocoder.GeocodingReverseIntl,
	}
}

// ReverseGeocode returns the first address for coord, or nil when there is none.
// The underlying call has no context support; an abandoned lookup finishes in
// the background and its result is dropped.
func (g *GoogleGeocoder) ReverseGeocode(ctx context.Context, coord weather.Coordinate) (*weather.PlaceRaw, error) {
	if g.cfg.APIKey == "" {
		return nil, errNoGoogleKey
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	setGoogleKey(g.cfg.APIKey)

	type result struct {
		addrs []geocoder.Address
		err   error
	}
	done := make(chan result, 1)

	go func() {
		addrs, err := g.reverse(geocoder.Location{
			Latitude:  coord.Latitude,
			Longitude: coord.Longitude,
		}, g.cfg.Language)
		done <- result{addrs: addrs, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		if len(r.addrs) == 0 {
			return nil, nil
		}
		addr := r.addrs[0]
		return &weather.PlaceRaw{
			Locality: addr.City,
			Region:   addr.State,
			Country:  addr.Country,
		}, nil
	}
}

// setGoogleKey writes the package key only when it changes, so lookups in
// flight with the same key never race with a write.
func setGoogleKey(key string) {
	googleKeyMu.Lock()
	defer googleKeyMu.Unlock()
	if geocoder.ApiKey != key {
		geocoder.ApiKey = key
	}
}
