package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/weather-map/internal/weather"
	"github.com/i474232898/weather-map/internal/weather/providers"
)

const (
	ModeSpain   = "spain"
	ModeCurrent = "current"
)

type AppConfig struct {
	// Mode picks the location source: the fixed Spanish cities or an
	// interactive device/search session.
	Mode   string `validate:"oneof=spain current"`
	Locale string `validate:"oneof=en es"`

	// FetchInterval controls how often the active source is refreshed.
	FetchInterval time.Duration `validate:"gt=0"`
	HTTPTimeout   time.Duration `validate:"gt=0"`

	BatchPolicy weather.BatchPolicy `validate:"oneof=isolate abort"`
	MaxRetries  int                 `validate:"gte=0,lte=10"`

	OpenMeteoURL    string `validate:"required,url"`
	OpenMeteoHourly bool

	GeocoderAPIKey string

	// DeviceLatitude/DeviceLongitude give the server a device position; nil
	// means geolocation is unsupported and the default location is used.
	DeviceLatitude  *float64 `validate:"omitempty,gte=-90,lte=90"`
	DeviceLongitude *float64 `validate:"omitempty,gte=-180,lte=180"`

	// In-memory store retention.
	StoreMaxHistory int           `validate:"gte=0"` // max number of result sets (0 = unlimited)
	StoreMaxAge     time.Duration `validate:"gte=0"` // max age of result sets (0 = unlimited)

	Port string `validate:"required,numeric"`
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	return fromEnv()
}

func fromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.Mode = getenvDefault("MAP_MODE", ModeSpain)
	defaultLocale := "en"
	if cfg.Mode == ModeSpain {
		defaultLocale = "es"
	}
	cfg.Locale = getenvDefault("MAP_LOCALE", defaultLocale)

	var err error
	if cfg.FetchInterval, err = getenvDuration("FETCH_INTERVAL", "15m"); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	cfg.BatchPolicy = weather.BatchPolicy(getenvDefault("BATCH_POLICY", string(weather.BatchIsolate)))
	cfg.MaxRetries = getenvInt("FETCH_MAX_RETRIES", 0)

	cfg.OpenMeteoURL = getenvDefault("OPEN_METEO_URL", providers.DefaultOpenMeteoURL)
	cfg.OpenMeteoHourly = getenvBool("OPEN_METEO_HOURLY", false)
	cfg.GeocoderAPIKey = os.Getenv("GOOGLE_GEOCODING_API_KEY")

	if cfg.DeviceLatitude, err = getenvFloat("DEVICE_LATITUDE"); err != nil {
		return nil, err
	}
	if cfg.DeviceLongitude, err = getenvFloat("DEVICE_LONGITUDE"); err != nil {
		return nil, err
	}
	if (cfg.DeviceLatitude == nil) != (cfg.DeviceLongitude == nil) {
		return nil, fmt.Errorf("DEVICE_LATITUDE and DEVICE_LONGITUDE must be set together")
	}

	// Store retention.
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 96) // roughly 24h at 15-minute intervals
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "24h"); err != nil {
		return nil, err
	}
	cfg.Port = getenvDefault("PORT", "8080")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DevicePosition returns the configured device coordinate, if any.
func (c *AppConfig) DevicePosition() (weather.Coordinate, bool) {
	if c.DeviceLatitude == nil || c.DeviceLongitude == nil {
		return weather.Coordinate{}, false
	}
	return weather.Coordinate{Latitude: *c.DeviceLatitude, Longitude: *c.DeviceLongitude}, true
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getenvFloat(key string) (*float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return &f, nil
}
