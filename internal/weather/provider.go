package weather

import (
	"context"
	"errors"
	"time"
)

// ErrNoObservation is returned by a Provider when the upstream response carries
// no current conditions for the requested coordinate.
var ErrNoObservation = errors.New("no current weather in response")

// Reading is a provider's raw current conditions for a coordinate.
type Reading struct {
	// ObservedAt is when the upstream measured the conditions (UTC).
	ObservedAt time.Time

	WeatherCode  int
	TemperatureC float64
}

// Provider abstracts a current-weather data source (e.g. Open-Meteo).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, c Coordinate) (Reading, error)
}

// LocationSource yields the set of locations a fetch cycle runs over.
type LocationSource interface {
	Name() string
	Locations(ctx context.Context) ([]NamedLocation, error)
}

// Store is the contract the in-memory store (and any future persistent store) must satisfy.
type Store interface {
	SaveResultSet(set ResultSet)
	GetLatest() (ResultSet, error)
	GetRange(from, to time.Time) ([]ResultSet, error)
}
