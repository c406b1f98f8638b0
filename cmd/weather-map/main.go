package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/weather-map/internal/api/http"
	"github.com/i474232898/weather-map/internal/config"
	"github.com/i474232898/weather-map/internal/location"
	"github.com/i474232898/weather-map/internal/mapview"
	"github.com/i474232898/weather-map/internal/scheduler"
	"github.com/i474232898/weather-map/internal/store"
	"github.com/i474232898/weather-map/internal/weather"
	"github.com/i474232898/weather-map/internal/weather/providers"
)

func main() {
	// Load configuration (.env first, then the environment).
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound Open-Meteo calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// In-memory store with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	// The breaker's half-open allowance follows the width of one fetch cycle.
	batchWidth := uint32(len(location.SpainCities()))
	if cfg.Mode == config.ModeCurrent {
		batchWidth = 1
	}

	provider := providers.NewOpenMeteoProvider(httpClient, providers.OpenMeteoOptions{
		BaseURL:       cfg.OpenMeteoURL,
		IncludeHourly: cfg.OpenMeteoHourly,
		Backoff: providers.BackoffConfig{
			MaxRetries:      cfg.MaxRetries,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
		Breaker: providers.BreakerConfig{MaxRequests: batchWidth},
	})

	service := weather.NewService(memStore, provider, cfg.BatchPolicy)

	deps := httpapi.Deps{
		Service: service,
		Labels:  mapview.LabelsFor(cfg.Locale),
	}

	switch cfg.Mode {
	case config.ModeCurrent:
		var geocoder location.Geocoder
		if cfg.GeocoderAPIKey != "" {
			g, err := location.NewGoogleGeocoder(cfg.GeocoderAPIKey)
			if err != nil {
				log.Fatalf("failed to set up geocoder: %v", err)
			}
			geocoder = g
		} else {
			log.Println("INFO: GOOGLE_GEOCODING_API_KEY not set; search results are approximated near the current location")
		}

		session := location.NewSession(geocoder)
		startCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPTimeout)
		current := session.Locate(startCtx, deviceGeolocator(cfg))
		cancel()

		deps.Source = session
		deps.Session = session
		deps.Viewport = mapview.NewViewport(current.Coordinate, mapview.LocalZoom)
	default:
		deps.Source = location.Static{}
		deps.Viewport = mapview.NewViewport(location.SpainCenter, mapview.CountryZoom)
	}

	log.Printf("INFO: map mode %s, locale %s, batch policy %s", cfg.Mode, cfg.Locale, service.Policy())

	// Scheduler that periodically refreshes the active location source. A
	// cycle may need several request timeouts when retries are enabled.
	cycleTimeout := cfg.HTTPTimeout * time.Duration(cfg.MaxRetries+1) * 2
	sched := scheduler.New(deps.Source, cfg.FetchInterval, cycleTimeout, service)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-map",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cycleTimeout + 5*time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-map",
			"mode":    cfg.Mode,
		})
	})

	httpapi.RegisterRoutes(app, deps)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}

// deviceGeolocator reports the configured device position, or that none is
// available so the session falls back to the default location.
func deviceGeolocator(cfg *config.AppConfig) location.Geolocator {
	return location.GeolocatorFunc(func(ctx context.Context) (weather.Coordinate, error) {
		pos, ok := cfg.DevicePosition()
		if !ok {
			return weather.Coordinate{}, location.ErrLocationUnavailable
		}
		return pos, nil
	})
}
