package weather

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
)

var ErrEmptyCity = errors.New("city must not be empty")

// Service drives the provider client and geocoder and merges their results
// into Bundles.
type Service struct {
	client   Client
	geocoder Geocoder
	lang     language.Tag
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new Service. A nil geocoder disables reverse geocoding.
func NewService(client Client, geocoder Geocoder, lang language.Tag, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client:   client,
		geocoder: geocoder,
		lang:     lang,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ResolveCity looks up current conditions by name, then the forecast for the
// coordinate the provider returned, then the place name. The calls are
// sequential because each depends on the previous response.
func (s *Service) ResolveCity(ctx context.Context, city string) (*Bundle, error) {
	if city == "" {
		return nil, ErrEmptyCity
	}

	current, err := s.client.CurrentByCity(ctx, city)
	if err != nil {
		return nil, err
	}
	coord := current.Coordinate()

	forecast, err := s.client.Forecast(ctx, coord)
	if err != nil {
		return nil, err
	}

	place := s.reverseGeocode(ctx, coord)
	loc := resolveLocation(coord, place, current.Name, current.Sys.Country)

	b := Merge(current, forecast, loc, s.lang, s.now())
	return &b, nil
}

// ResolveCoordinate issues the current, forecast and reverse-geocode calls
// concurrently and merges once all of them settle. The first current or
// forecast failure fails the whole resolution; geocoding only degrades the name.
func (s *Service) ResolveCoordinate(ctx context.Context, coord Coordinate) (*Bundle, error) {
	var (
		current  CurrentRaw
		forecast ForecastRaw
		place    *PlaceRaw
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.client.CurrentByCoordinate(gctx, coord)
		if err != nil {
			return err
		}
		current = r
		return nil
	})
	g.Go(func() error {
		r, err := s.client.Forecast(gctx, coord)
		if err != nil {
			return err
		}
		forecast = r
		return nil
	})
	g.Go(func() error {
		place = s.reverseGeocode(gctx, coord)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	loc := resolveLocation(coord, place, current.Name, current.Sys.Country)
	b := Merge(current, forecast, loc, s.lang, s.now())
	return &b, nil
}

// reverseGeocode is best effort: failures are logged and yield no place.
func (s *Service) reverseGeocode(ctx context.Context, coord Coordinate) *PlaceRaw {
	if s.geocoder == nil {
		return nil
	}
	place, err := s.geocoder.ReverseGeocode(ctx, coord)
	if err != nil {
		s.logger.Warn("reverse geocode failed; using provider name", "coordinate", coord.String(), "error", &GeocodeError{Err: err})
		return nil
	}
	return place
}
