package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/weather-map/internal/weather"
)

var (
	// ErrNotFound is returned when no fetch cycle has been stored yet.
	ErrNotFound = errors.New("no weather result set available")
)

// MemoryStore is a concurrency-safe in-memory holder of the displayed result
// set and the sets that preceded it.
type MemoryStore struct {
	mu sync.RWMutex

	// time-ordered, newest last
	sets []weather.ResultSet

	// retention configuration
	maxHistory int           // max number of result sets kept
	maxAge     time.Duration // optional max age for result sets
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

// SaveResultSet makes set the latest one and enforces retention. The latest set
// is never dropped by retention.
func (s *MemoryStore) SaveResultSet(set weather.ResultSet) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sets = append(s.sets, set)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(s.sets) > s.maxHistory {
		over := len(s.sets) - s.maxHistory
		s.sets = s.sets[over:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := time.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(s.sets)-1; i++ {
			if !s.sets[i].FetchedAt.Before(cutoff) {
				break
			}
		}
		if i > 0 {
			s.sets = s.sets[i:]
		}
	}
}

// GetLatest returns the most recent result set.
func (s *MemoryStore) GetLatest() (weather.ResultSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.sets) == 0 {
		return weather.ResultSet{}, ErrNotFound
	}
	return s.sets[len(s.sets)-1], nil
}

// GetRange returns all result sets fetched between from and to (inclusive).
func (s *MemoryStore) GetRange(from, to time.Time) ([]weather.ResultSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []weather.ResultSet
	for _, set := range s.sets {
		if !set.FetchedAt.Before(from) && !set.FetchedAt.After(to) {
			result = append(result, set)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}
