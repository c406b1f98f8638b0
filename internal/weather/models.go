package weather

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidLatitude  = errors.New("latitude must be between -90 and 90")
	ErrInvalidLongitude = errors.New("longitude must be between -180 and 180")
)

// Category is the 8-way bucketing of a WMO weather code used for icon selection.
type Category string

const (
	CategorySunny       Category = "sunny"
	CategoryPartlySunny Category = "partlySunny"
	CategoryCloudy      Category = "cloudy"
	CategoryRain        Category = "rain"
	CategorySnow        Category = "snow"
	CategoryPartlyRainy Category = "partlyRainy"
	CategoryPartlySnow  Category = "partlySnow"
	CategoryWindy       Category = "windy"
)

// Categories lists every category in classification order.
var Categories = [...]Category{
	CategorySunny,
	CategoryPartlySunny,
	CategoryCloudy,
	CategoryRain,
	CategorySnow,
	CategoryPartlyRainy,
	CategoryPartlySnow,
	CategoryWindy,
}

// Valid reports whether c is one of the eight known categories.
func (c Category) Valid() bool {
	switch c {
	case CategorySunny, CategoryPartlySunny, CategoryCloudy, CategoryRain,
		CategorySnow, CategoryPartlyRainy, CategoryPartlySnow, CategoryWindy:
		return true
	}
	return false
}

// Status tells whether an observation carries real data.
type Status string

const (
	StatusOK      Status = "ok"
	StatusUnknown Status = "unknown"
)

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks the coordinate against the WGS84 ranges.
func (c Coordinate) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: got %f", ErrInvalidLatitude, c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: got %f", ErrInvalidLongitude, c.Longitude)
	}
	return nil
}

// NamedLocation is a coordinate paired with a human-readable label.
type NamedLocation struct {
	Coordinate
	Name string `json:"name"`
}

// Observation is the classified current weather for one location.
// Observations with StatusUnknown have no category and a zero temperature.
type Observation struct {
	NamedLocation
	Status       Status   `json:"status"`
	Category     Category `json:"category,omitempty"`
	WeatherCode  int      `json:"weatherCode"`
	TemperatureC int      `json:"temperatureC"`

	// ObservedAt is the upstream measurement time; zero for unknown observations.
	ObservedAt time.Time `json:"observedAt"`
	Error      string    `json:"error,omitempty"`
}

// ResultSet is the outcome of one fetch cycle. It replaces the previous set wholesale.
// Observations are positional to the locations resolved for the cycle.
type ResultSet struct {
	CycleID      string        `json:"cycleId"`
	Generation   uint64        `json:"generation"`
	Source       string        `json:"source"`
	FetchedAt    time.Time     `json:"fetchedAt"` // always UTC
	Observations []Observation `json:"observations"`
}

// Failed returns how many observations in the set are unknown.
func (r ResultSet) Failed() int {
	n := 0
	for _, o := range r.Observations {
		if o.Status != StatusOK {
			n++
		}
	}
	return n
}
