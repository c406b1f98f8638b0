package location

import (
	"context"
	"errors"
	"fmt"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-map/internal/weather"
)

var errNoGeocoderKey = errors.New("google geocoding api key is not configured")

// GoogleGeocoder resolves search text through the Google Geocoding API.
type GoogleGeocoder struct {
	lookup func(geocoder.Address) (geocoder.Location, error)
}

// NewGoogleGeocoder configures the geocoding client with apiKey. The client keeps
// the key in package state, so one key is shared by the whole process.
func NewGoogleGeocoder(apiKey string) (*GoogleGeocoder, error) {
	if apiKey == "" {
		return nil, errNoGeocoderKey
	}
	geocoder.ApiKey = apiKey
	return &GoogleGeocoder{lookup: geocoder.Geocoding}, nil
}

// Geocode treats the whole query as a free-form city/place name.
func (g *GoogleGeocoder) Geocode(ctx context.Context, query string) (weather.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return weather.Coordinate{}, err
	}

	loc, err := g.lookup(geocoder.Address{City: query})
	if err != nil {
		return weather.Coordinate{}, fmt.Errorf("google geocoding: %w", err)
	}
	return weather.Coordinate{Latitude: loc.Latitude, Longitude: loc.Longitude}, nil
}
