package scheduler

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-map/internal/weather"
)

const defaultInterval = 15 * time.Minute

// Refresher runs one fetch cycle for a location source.
type Refresher interface {
	Refresh(ctx context.Context, src weather.LocationSource) (weather.ResultSet, error)
}

// Scheduler periodically refreshes the weather for the active location source.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Refresher
	source    weather.LocationSource
	interval  time.Duration
	timeout   time.Duration
}

// New creates a new Scheduler. Each run is bounded by timeout.
func New(source weather.LocationSource, interval, timeout time.Duration, service Refresher) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	if interval <= 0 {
		interval = defaultInterval
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Scheduler{
		scheduler: s,
		service:   service,
		source:    source,
		interval:  interval,
		timeout:   timeout,
	}
}

// Start schedules the periodic job and starts the underlying scheduler. The
// first run happens immediately.
func (s *Scheduler) Start() error {
	if s.source == nil {
		log.Println("scheduler: no location source configured; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run() {
	log.Printf("scheduler: refreshing weather for %s", s.source.Name())

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	set, err := s.service.Refresh(ctx, s.source)
	switch {
	case errors.Is(err, weather.ErrSuperseded):
		log.Printf("scheduler: refresh for %s superseded by a newer cycle", s.source.Name())
	case err != nil:
		log.Printf("scheduler: refresh failed for %s: %v", s.source.Name(), err)
	default:
		log.Printf("scheduler: completed cycle %s with %d observations", set.CycleID, len(set.Observations))
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
