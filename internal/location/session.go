package location

import (
	"context"
	"sync"

	"github.com/i474232898/weather-map/internal/weather"
)

// Session holds the current location of an interactive map. Locating and
// searching both replace it wholesale.
type Session struct {
	// ops serializes Locate and Search so a search never starts from a
	// position that a concurrent locate is about to replace.
	ops sync.Mutex

	mu       sync.RWMutex
	current  weather.NamedLocation
	geocoder Geocoder
	rand     func() float64
}

// NewSession starts a session at DefaultLocation. geocoder may be nil.
func NewSession(geocoder Geocoder) *Session {
	return &Session{
		current:  DefaultLocation,
		geocoder: geocoder,
	}
}

func (s *Session) Name() string { return "session" }

// Locations yields the current location.
func (s *Session) Locations(ctx context.Context) ([]weather.NamedLocation, error) {
	return []weather.NamedLocation{s.Current()}, nil
}

func (s *Session) Current() weather.NamedLocation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Locate makes the device position (or DefaultLocation) current.
func (s *Session) Locate(ctx context.Context, geo Geolocator) weather.NamedLocation {
	s.ops.Lock()
	defer s.ops.Unlock()

	loc := Device{Geolocator: geo}.Locate(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = loc
	return loc
}

// Search resolves query from the current location and makes the result current.
func (s *Session) Search(ctx context.Context, query string) (weather.NamedLocation, error) {
	s.ops.Lock()
	defer s.ops.Unlock()

	s.mu.RLock()
	search := Search{From: s.current, Query: query, Geocoder: s.geocoder, Rand: s.rand}
	s.mu.RUnlock()

	loc, err := search.Resolve(ctx)
	if err != nil {
		return weather.NamedLocation{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = loc
	return loc, nil
}
