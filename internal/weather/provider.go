package weather

import (
	"context"
)

// Descriptor is one entry of a provider "weather" list.
type Descriptor struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// RawCoord is a provider coordinate object.
type RawCoord struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// RawMain holds the primary metrics of a current-conditions response.
type RawMain struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	Pressure  float64 `json:"pressure"`
	Humidity  float64 `json:"humidity"`
}

// RawWind holds wind speed (m/s) and direction (degrees).
type RawWind struct {
	Speed float64 `json:"speed"`
	Deg   float64 `json:"deg"`
}

// RawSys holds auxiliary place data of a current-conditions response.
type RawSys struct {
	Country string `json:"country"`
}

// CurrentRaw is the current-conditions response. Pointer sections are required.
type CurrentRaw struct {
	Coord   *RawCoord    `json:"coord" validate:"required"`
	Weather []Descriptor `json:"weather"`
	Main    *RawMain     `json:"main" validate:"required"`
	Wind    *RawWind     `json:"wind" validate:"required"`
	Name    string       `json:"name"`
	Sys     RawSys       `json:"sys"`
}

// Coordinate returns the coordinate the provider resolved the query to.
func (r CurrentRaw) Coordinate() Coordinate {
	if r.Coord == nil {
		return Coordinate{}
	}
	return Coordinate{Latitude: r.Coord.Lat, Longitude: r.Coord.Lon}
}

// ForecastCurrent is the "current" block of a forecast response.
type ForecastCurrent struct {
	Dt        int64        `json:"dt"`
	Sunrise   int64        `json:"sunrise"`
	Sunset    int64        `json:"sunset"`
	Temp      float64      `json:"temp"`
	FeelsLike float64      `json:"feels_like"`
	Pressure  float64      `json:"pressure"`
	Humidity  float64      `json:"humidity"`
	WindSpeed float64      `json:"wind_speed"`
	WindDeg   float64      `json:"wind_deg"`
	Weather   []Descriptor `json:"weather"`
}

// ForecastHour is one entry of the hourly series.
type ForecastHour struct {
	Dt      int64        `json:"dt"`
	Temp    float64      `json:"temp"`
	Pop     float64      `json:"pop"`
	Weather []Descriptor `json:"weather"`
}

// DayTemp is the daily temperature range.
type DayTemp struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// ForecastDay is one entry of the daily series.
type ForecastDay struct {
	Dt      int64        `json:"dt"`
	Sunrise int64        `json:"sunrise"`
	Sunset  int64        `json:"sunset"`
	Temp    DayTemp      `json:"temp"`
	Weather []Descriptor `json:"weather"`
}

// ForecastRaw is the one-call forecast response (minutely and alerts excluded).
type ForecastRaw struct {
	Timezone string           `json:"timezone"`
	Current  *ForecastCurrent `json:"current" validate:"required"`
	Hourly   []ForecastHour   `json:"hourly"`
	Daily    []ForecastDay    `json:"daily"`
}

// PlaceRaw is a reverse-geocoded place. Any field may be empty.
type PlaceRaw struct {
	Locality string
	Region   string
	Country  string
}

// Client is the remote weather service.
type Client interface {
	CurrentByCity(ctx context.Context, city string) (CurrentRaw, error)
	CurrentByCoordinate(ctx context.Context, coord Coordinate) (CurrentRaw, error)
	Forecast(ctx context.Context, coord Coordinate) (ForecastRaw, error)
}

// Geocoder resolves a coordinate to zero or one place.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, coord Coordinate) (*PlaceRaw, error)
}
