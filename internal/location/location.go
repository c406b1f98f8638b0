package location

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"

	"github.com/i474232898/weather-map/internal/weather"
)

var (
	// ErrLocationUnavailable is returned by a Geolocator when the position was
	// denied, is unsupported, or could not be determined.
	ErrLocationUnavailable = errors.New("device location unavailable")

	ErrEmptyQuery = errors.New("search query is empty")
)

// DefaultLocation is used whenever the device position cannot be obtained.
var DefaultLocation = weather.NamedLocation{
	Coordinate: weather.Coordinate{Latitude: 41.3851, Longitude: 2.1734},
	Name:       "Barcelona",
}

// CurrentLocationName labels a position obtained from the device.
const CurrentLocationName = "Current Location"

// searchJitter is the half-width, in degrees, of the synthetic search offset.
const searchJitter = 0.1

// Geolocator is a single-shot device position query.
type Geolocator interface {
	Position(ctx context.Context) (weather.Coordinate, error)
}

// GeolocatorFunc adapts a function to the Geolocator interface.
type GeolocatorFunc func(ctx context.Context) (weather.Coordinate, error)

func (f GeolocatorFunc) Position(ctx context.Context) (weather.Coordinate, error) {
	return f(ctx)
}

// Geocoder resolves free text to a coordinate.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (weather.Coordinate, error)
}

// Device yields the device position, or DefaultLocation when it is unavailable.
// A nil Geolocator behaves like an unsupported platform.
type Device struct {
	Geolocator Geolocator
}

func (d Device) Name() string { return "device" }

func (d Device) Locations(ctx context.Context) ([]weather.NamedLocation, error) {
	return []weather.NamedLocation{d.Locate(ctx)}, nil
}

// Locate queries the geolocator once. It never fails.
func (d Device) Locate(ctx context.Context) weather.NamedLocation {
	if d.Geolocator == nil {
		log.Printf("INFO: geolocation is not supported; using %s", DefaultLocation.Name)
		return DefaultLocation
	}

	c, err := d.Geolocator.Position(ctx)
	if err == nil {
		err = c.Validate()
	}
	if err != nil {
		log.Printf("INFO: error getting device location, using %s: %v", DefaultLocation.Name, err)
		return DefaultLocation
	}

	return weather.NamedLocation{Coordinate: c, Name: CurrentLocationName}
}

// Search resolves Query relative to From. Without a Geocoder the result is
// From shifted by a pseudo-random offset in [-0.1, +0.1) degrees on each axis.
// The offset is a placeholder for real geocoding.
type Search struct {
	From     weather.NamedLocation
	Query    string
	Geocoder Geocoder
	// Rand returns values in [0, 1); nil means math/rand.
	Rand func() float64
}

func (s Search) Name() string { return "search" }

func (s Search) Locations(ctx context.Context) ([]weather.NamedLocation, error) {
	loc, err := s.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return []weather.NamedLocation{loc}, nil
}

// Resolve returns the location named after the query.
func (s Search) Resolve(ctx context.Context) (weather.NamedLocation, error) {
	query := strings.TrimSpace(s.Query)
	if query == "" {
		return weather.NamedLocation{}, ErrEmptyQuery
	}

	if s.Geocoder != nil {
		c, err := s.Geocoder.Geocode(ctx, query)
		if err != nil {
			return weather.NamedLocation{}, fmt.Errorf("geocode %q: %w", query, err)
		}
		if err := c.Validate(); err != nil {
			return weather.NamedLocation{}, fmt.Errorf("geocode %q: %w", query, err)
		}
		return weather.NamedLocation{Coordinate: c, Name: query}, nil
	}

	random := s.Rand
	if random == nil {
		random = rand.Float64
	}

	c := weather.Coordinate{
		Latitude:  s.From.Latitude + random()*2*searchJitter - searchJitter,
		Longitude: s.From.Longitude + random()*2*searchJitter - searchJitter,
	}
	c.Latitude = min(max(c.Latitude, -90), 90)
	c.Longitude = min(max(c.Longitude, -180), 180)

	return weather.NamedLocation{Coordinate: c, Name: query}, nil
}

// Fixed yields an explicit list of locations.
type Fixed []weather.NamedLocation

func (f Fixed) Name() string { return "fixed" }

func (f Fixed) Locations(ctx context.Context) ([]weather.NamedLocation, error) {
	out := make([]weather.NamedLocation, len(f))
	copy(out, f)
	return out, nil
}
