package weather

import (
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Merge combines a current-conditions response and a forecast response into a
// Bundle for loc. Temperature, humidity, pressure and wind come from current;
// feels-like comes from the forecast. Hourly and daily series keep provider order
// and are truncated to 24 and 7 entries. The result depends only on the inputs.
func Merge(current CurrentRaw, forecast ForecastRaw, loc Location, lang language.Tag, fetchedAt time.Time) Bundle {
	first := firstDescriptor(current.Weather)

	cur := CurrentConditions{
		Description: cases.Title(lang).String(first.Description),
		Condition:   ConditionFromIcon(first.Icon),
	}
	if current.Main != nil {
		cur.Temperature = current.Main.Temp
		cur.Humidity = current.Main.Humidity
		cur.Pressure = PressureMmHg(current.Main.Pressure)
	}
	if current.Wind != nil {
		cur.WindSpeed = current.Wind.Speed
		cur.WindDirection = current.Wind.Deg
	}
	if forecast.Current != nil {
		cur.FeelsLike = forecast.Current.FeelsLike
	}

	hourly := make([]HourlySample, 0, min(len(forecast.Hourly), maxHourlySamples))
	for _, h := range forecast.Hourly {
		if len(hourly) == maxHourlySamples {
			break
		}
		hourly = append(hourly, HourlySample{
			Time:                     unixUTC(h.Dt),
			Temperature:              h.Temp,
			Condition:                ConditionFromIcon(firstDescriptor(h.Weather).Icon),
			PrecipitationProbability: h.Pop,
		})
	}

	daily := make([]DailySample, 0, min(len(forecast.Daily), maxDailySamples))
	for _, d := range forecast.Daily {
		if len(daily) == maxDailySamples {
			break
		}
		daily = append(daily, DailySample{
			Date:      unixUTC(d.Dt),
			Min:       d.Temp.Min,
			Max:       d.Temp.Max,
			Condition: ConditionFromIcon(firstDescriptor(d.Weather).Icon),
			Sunrise:   unixUTC(d.Sunrise),
			Sunset:    unixUTC(d.Sunset),
		})
	}

	return Bundle{
		Location:  loc,
		Current:   cur,
		Hourly:    hourly,
		Daily:     daily,
		FetchedAt: fetchedAt,
	}
}

// resolveLocation picks the geocoded place when it has a locality and falls back
// to the provider's own name and country otherwise.
func resolveLocation(coord Coordinate, place *PlaceRaw, fallbackCity, fallbackCountry string) Location {
	loc := Location{
		City:       fallbackCity,
		Country:    fallbackCountry,
		Coordinate: coord,
	}
	if place != nil {
		if place.Locality != "" {
			loc.City = place.Locality
		}
		loc.Region = place.Region
		if place.Country != "" {
			loc.Country = place.Country
		}
	}
	if loc.City == "" {
		loc.City = coord.String()
	}
	return loc
}

// An empty descriptor list is not an error; it yields ConditionUnknown downstream.
func firstDescriptor(items []Descriptor) Descriptor {
	if len(items) == 0 {
		return Descriptor{}
	}
	return items[0]
}

func unixUTC(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
