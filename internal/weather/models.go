package weather

import (
	"fmt"
	"time"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionClear        Condition = "clear"
	ConditionClouds       Condition = "clouds"
	ConditionRain         Condition = "rain"
	ConditionDrizzle      Condition = "drizzle"
	ConditionThunderstorm Condition = "thunderstorm"
	ConditionSnow         Condition = "snow"
	ConditionAtmosphere   Condition = "atmosphere"
	ConditionUnknown      Condition = "unknown"
)

var iconConditions = map[string]Condition{
	"01": ConditionClear,
	"02": ConditionClouds,
	"03": ConditionClouds,
	"04": ConditionClouds,
	"09": ConditionDrizzle,
	"10": ConditionRain,
	"11": ConditionThunderstorm,
	"13": ConditionSnow,
	"50": ConditionAtmosphere,
}

// ConditionFromIcon maps a provider icon code ("10d", "01n", ...) to a Condition
// using its first two characters. Unrecognised codes map to ConditionUnknown.
func ConditionFromIcon(icon string) Condition {
	if len(icon) < 2 {
		return ConditionUnknown
	}
	if c, ok := iconConditions[icon[:2]]; ok {
		return c
	}
	return ConditionUnknown
}

// hPaToMmHg converts hectopascals to millimetres of mercury.
const hPaToMmHg = 0.750062

// PressureMmHg converts a provider pressure in hPa to mmHg.
func PressureMmHg(hPa float64) float64 {
	return hPa * hPaToMmHg
}

// Coordinate is a point in degrees.
type Coordinate struct {
	Latitude  float64 `json:"lat" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"lon" validate:"gte=-180,lte=180"`
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.4f, %.4f", c.Latitude, c.Longitude)
}

// Location is a resolved place. City is never empty once produced by the Service.
type Location struct {
	City       string     `json:"city"`
	Region     string     `json:"region,omitempty"`
	Country    string     `json:"country,omitempty"`
	Coordinate Coordinate `json:"coordinate"`
}

// DisplayName is the city, suffixed with the region when one is known.
func (l Location) DisplayName() string {
	if l.Region != "" {
		return l.City + ", " + l.Region
	}
	return l.City
}

// CurrentConditions is the merged view of "now". Pressure is in mmHg.
type CurrentConditions struct {
	Temperature   float64   `json:"temperatureC"`
	Description   string    `json:"description"`
	Condition     Condition `json:"condition"`
	Humidity      float64   `json:"humidityPercent"`
	Pressure      float64   `json:"pressureMmHg"`
	WindSpeed     float64   `json:"windSpeed"`
	WindDirection float64   `json:"windDirection"`
	FeelsLike     float64   `json:"feelsLikeC"`
}

// Metric is a value paired with its display unit.
type Metric struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// Metrics returns the headline values with their units, keyed by name.
func (c CurrentConditions) Metrics() map[string]Metric {
	return map[string]Metric{
		"temperature": {Value: c.Temperature, Unit: "°C"},
		"humidity":    {Value: c.Humidity, Unit: "%"},
		"wind":        {Value: c.WindSpeed, Unit: "m/s"},
		"pressure":    {Value: c.Pressure, Unit: "mmHg"},
	}
}

// HourlySample is one entry of the hourly forecast.
type HourlySample struct {
	Time                     time.Time `json:"time"`
	Temperature              float64   `json:"temperatureC"`
	Condition                Condition `json:"condition"`
	PrecipitationProbability float64   `json:"pop"`
}

// DailySample is one entry of the daily forecast.
type DailySample struct {
	Date      time.Time `json:"date"`
	Min       float64   `json:"minC"`
	Max       float64   `json:"maxC"`
	Condition Condition `json:"condition"`
	Sunrise   time.Time `json:"sunrise"`
	Sunset    time.Time `json:"sunset"`
}

const (
	maxHourlySamples = 24
	maxDailySamples  = 7
)

// Bundle is an immutable weather snapshot for a location. A refresh produces a
// new Bundle; callers must not modify one after it is built.
type Bundle struct {
	Location  Location          `json:"location"`
	Current   CurrentConditions `json:"current"`
	Hourly    []HourlySample    `json:"hourly"`
	Daily     []DailySample     `json:"daily"`
	FetchedAt time.Time         `json:"fetchedAt"`
}

// HistoryEntry is one past lookup as persisted in the history log.
type HistoryEntry struct {
	ID          string    `json:"id" bson:"id"`
	Date        time.Time `json:"date" bson:"date"`
	City        string    `json:"city" bson:"city"`
	Temperature float64   `json:"temperature" bson:"temperature"`
	Condition   Condition `json:"condition" bson:"condition"`
}
