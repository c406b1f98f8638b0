package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// BatchPolicy decides what a failed request does to the rest of its batch.
type BatchPolicy string

const (
	// BatchIsolate keeps successful observations and marks failed locations unknown.
	BatchIsolate BatchPolicy = "isolate"
	// BatchAbort discards the whole batch on the first failure and cancels in-flight requests.
	BatchAbort BatchPolicy = "abort"
)

var (
	// ErrSuperseded is returned by Refresh when a newer cycle started before this one finished.
	ErrSuperseded = errors.New("fetch cycle superseded by a newer one")

	errNoProvider = errors.New("no weather provider configured")
)

// BatchError reports the failure that aborted a batch.
type BatchError struct {
	Index    int
	Location NamedLocation
	Err      error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("fetch for %q (#%d) failed: %v", e.Location.Name, e.Index, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// Service runs fetch cycles against a provider and publishes result sets to a store.
type Service struct {
	store    Store
	provider Provider
	policy   BatchPolicy

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
}

// NewService creates a new Service. An empty policy means BatchIsolate.
func NewService(store Store, provider Provider, policy BatchPolicy) *Service {
	if policy == "" {
		policy = BatchIsolate
	}
	return &Service{
		store:    store,
		provider: provider,
		policy:   policy,
	}
}

// Policy returns the batch policy the service was built with.
func (s *Service) Policy() BatchPolicy {
	return s.policy
}

// FetchAll requests current weather for every location concurrently and returns
// one observation per location in input order.
func (s *Service) FetchAll(ctx context.Context, locations []NamedLocation) ([]Observation, error) {
	observations := make([]Observation, len(locations))
	if len(locations) == 0 {
		return observations, nil
	}
	if s.provider == nil {
		return nil, errNoProvider
	}

	log.Printf("DEBUG: FetchAll called for %d locations with provider %s", len(locations), s.provider.Name())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		batchErr *BatchError
	)

	for i, loc := range locations {
		i, loc := i, loc
		wg.Add(1)
		go func() {
			defer wg.Done()

			obs, err := s.observe(ctx, loc)
			observations[i] = obs
			if err == nil {
				return
			}

			log.Printf("ERROR: provider %s fetch failed for %s: %v", s.provider.Name(), loc.Name, err)
			if s.policy == BatchAbort {
				once.Do(func() {
					batchErr = &BatchError{Index: i, Location: loc, Err: err}
					cancel()
				})
			}
		}()
	}

	wg.Wait()

	if batchErr != nil {
		log.Printf("ERROR: discarding batch of %d locations: %v", len(locations), batchErr)
		return nil, batchErr
	}
	return observations, nil
}

// observe fetches and classifies a single location. A missing observation in the
// response is not an error; it yields an unknown observation.
func (s *Service) observe(ctx context.Context, loc NamedLocation) (Observation, error) {
	obs := Observation{NamedLocation: loc, Status: StatusUnknown}

	r, err := s.provider.Fetch(ctx, loc.Coordinate)
	if errors.Is(err, ErrNoObservation) {
		obs.Error = err.Error()
		return obs, nil
	}
	if err != nil {
		obs.Error = err.Error()
		return obs, err
	}

	obs.Status = StatusOK
	obs.WeatherCode = r.WeatherCode
	obs.Category = Classify(r.WeatherCode)
	obs.TemperatureC = RoundTemperature(r.TemperatureC)
	obs.ObservedAt = r.ObservedAt
	return obs, nil
}

// Refresh resolves the source's locations, fetches them and publishes the result
// set. Starting a refresh cancels any refresh still in flight; a cancelled or
// late cycle never overwrites a newer result set.
func (s *Service) Refresh(ctx context.Context, src LocationSource) (ResultSet, error) {
	cycleCtx, gen := s.beginCycle(ctx)
	defer s.endCycle(gen)

	locations, err := src.Locations(cycleCtx)
	if err != nil {
		return ResultSet{}, fmt.Errorf("resolve locations from %s: %w", src.Name(), err)
	}

	observations, err := s.FetchAll(cycleCtx, locations)
	if s.superseded(gen) {
		log.Printf("INFO: cycle %d from %s superseded; dropping its results", gen, src.Name())
		return ResultSet{}, ErrSuperseded
	}
	if err != nil {
		return ResultSet{}, err
	}
	if err := ctx.Err(); err != nil {
		return ResultSet{}, err
	}

	set := ResultSet{
		CycleID:      uuid.NewString(),
		Generation:   gen,
		Source:       src.Name(),
		FetchedAt:    time.Now().UTC(),
		Observations: observations,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return ResultSet{}, ErrSuperseded
	}
	s.store.SaveResultSet(set)

	if failed := set.Failed(); failed > 0 {
		log.Printf("INFO: cycle %s stored with %d/%d unknown locations", set.CycleID, failed, len(observations))
	}
	return set, nil
}

func (s *Service) beginCycle(ctx context.Context) (context.Context, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	cycleCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.generation++
	return cycleCtx, s.generation
}

func (s *Service) endCycle(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen == s.generation && s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Service) superseded(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen != s.generation
}

// GetLatest delegates to the underlying store.
func (s *Service) GetLatest() (ResultSet, error) {
	return s.store.GetLatest()
}

// GetRange delegates to the underlying store.
func (s *Service) GetRange(from, to time.Time) ([]ResultSet, error) {
	return s.store.GetRange(from, to)
}
