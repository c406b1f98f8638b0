package location

import (
	"context"

	"github.com/i474232898/weather-map/internal/weather"
)

// SpainCenter is where the city map is centered.
var SpainCenter = weather.Coordinate{Latitude: 40.4637, Longitude: -3.7492}

var spainCities = [...]weather.NamedLocation{
	city("Madrid", 40.4168, -3.7038),
	city("Barcelona", 41.3851, 2.1734),
	city("Valencia", 39.4699, -0.3763),
	city("Sevilla", 37.3891, -5.9845),
	city("Zaragoza", 41.6488, -0.8891),
	city("Cáceres", 39.47649, -6.37224),
	city("Murcia", 37.9922, -1.1307),
	city("Palma", 39.5696, 2.6502),
	city("Las Palmas", 28.1235, -15.4366),
	city("Bilbao", 43.2630, -2.9350),
	city("Alicante", 38.3452, -0.4815),
	city("Córdoba", 37.8882, -4.7794),
	city("Valladolid", 41.6523, -4.7245),
	city("Vigo", 42.2406, -8.7207),
	city("Gijón", 43.5357, -5.6615),
	city("Girona", 41.98311, 2.82493),
	city("Vitoria", 42.8467, -2.6716),
	city("A Coruña", 43.3713, -8.3959),
	city("Granada", 37.1773, -3.5986),
	city("Ciudad Real", 38.98626, -3.92907),
}

func city(name string, lat, lon float64) weather.NamedLocation {
	return weather.NamedLocation{
		Coordinate: weather.Coordinate{Latitude: lat, Longitude: lon},
		Name:       name,
	}
}

// SpainCities returns a copy of the fixed city table.
func SpainCities() []weather.NamedLocation {
	out := make([]weather.NamedLocation, len(spainCities))
	copy(out, spainCities[:])
	return out
}

// Static yields the fixed Spanish city table on every call.
type Static struct{}

func (Static) Name() string { return "spain" }

func (Static) Locations(ctx context.Context) ([]weather.NamedLocation, error) {
	return SpainCities(), nil
}
