package httpapi

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-map/internal/location"
	"github.com/i474232898/weather-map/internal/mapview"
	"github.com/i474232898/weather-map/internal/store"
	"github.com/i474232898/weather-map/internal/weather"
)

var validate = validator.New()

// Deps are the collaborators the routes drive.
type Deps struct {
	Service *weather.Service
	// Source is what /refresh re-runs.
	Source weather.LocationSource
	// Session is nil unless the map follows a located/searched position.
	Session  *location.Session
	Viewport *mapview.Viewport
	Labels   mapview.Labels
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	v1 := app.Group("/api/v1")

	v1.Get("/map", func(c *fiber.Ctx) error {
		set, err := d.Service.GetLatest()
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load weather data")
		}
		return c.JSON(d.mapPayload(set))
	})

	v1.Get("/observations", func(c *fiber.Ctx) error {
		set, err := d.Service.GetLatest()
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather data fetched yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load weather data")
		}
		return c.JSON(set)
	})

	v1.Get("/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		sets, err := d.Service.GetRange(req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather history for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather history")
		}

		return c.JSON(fiber.Map{
			"from":       req.From,
			"to":         req.To,
			"resultSets": sets,
		})
	})

	v1.Post("/refresh", func(c *fiber.Ctx) error {
		if d.Source == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "no location source configured")
		}
		return d.refresh(c, d.Source)
	})

	v1.Post("/locate", func(c *fiber.Ctx) error {
		if d.Session == nil {
			return fiber.NewError(fiber.StatusNotFound, "locating is only available for the current-location map")
		}

		var req locateRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
			}
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc := d.Session.Locate(c.UserContext(), req.geolocator())
		d.Viewport.Recenter(loc.Coordinate)
		return d.refresh(c, d.Session)
	})

	v1.Post("/search", func(c *fiber.Ctx) error {
		if d.Session == nil {
			return fiber.NewError(fiber.StatusNotFound, "search is only available for the current-location map")
		}

		var req searchRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc, err := d.Session.Search(c.UserContext(), req.Query)
		if err != nil {
			if errors.Is(err, location.ErrEmptyQuery) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			log.Printf("ERROR: search for %q failed: %v", req.Query, err)
			return fiber.NewError(fiber.StatusNotFound, "location not found")
		}

		d.Viewport.Recenter(loc.Coordinate)
		return d.refresh(c, d.Session)
	})

	v1.Put("/viewport/zoom", func(c *fiber.Ctx) error {
		var req zoomRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		var listener mapview.ZoomListener = d.Viewport
		listener.OnZoom(*req.Zoom)
		return c.JSON(d.Viewport.View())
	})
}

// refresh runs a fetch cycle and answers with the resulting map.
func (d Deps) refresh(c *fiber.Ctx, src weather.LocationSource) error {
	set, err := d.Service.Refresh(c.UserContext(), src)
	if err != nil {
		var batchErr *weather.BatchError
		switch {
		case errors.Is(err, weather.ErrSuperseded):
			return fiber.NewError(fiber.StatusConflict, "a newer refresh replaced this one")
		case errors.As(err, &batchErr):
			log.Printf("ERROR: refresh for %s discarded: %v", src.Name(), err)
			return fiber.NewError(fiber.StatusBadGateway, "weather provider failed; keeping previous map")
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return fiber.NewError(fiber.StatusServiceUnavailable, "refresh was cancelled")
		default:
			log.Printf("ERROR: refresh for %s failed: %v", src.Name(), err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to refresh weather data")
		}
	}
	return c.JSON(d.mapPayload(set))
}

func (d Deps) mapPayload(set weather.ResultSet) fiber.Map {
	payload := fiber.Map{
		"cycleId": set.CycleID,
		"source":  set.Source,
		"view":    d.Viewport.View(),
		"markers": mapview.Markers(set, d.Labels),
	}
	if !set.FetchedAt.IsZero() {
		payload["fetchedAt"] = set.FetchedAt
	}
	return payload
}

// locateRequest carries the position reported by the client device. An empty
// body or denied=true means the device could not provide one.
type locateRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required_with=Longitude"`
	Longitude *float64 `json:"longitude" validate:"required_with=Latitude"`
	Denied    bool     `json:"denied"`
}

func (r locateRequest) geolocator() location.Geolocator {
	return location.GeolocatorFunc(func(ctx context.Context) (weather.Coordinate, error) {
		if r.Denied || r.Latitude == nil || r.Longitude == nil {
			return weather.Coordinate{}, location.ErrLocationUnavailable
		}
		return weather.Coordinate{Latitude: *r.Latitude, Longitude: *r.Longitude}, nil
	})
}

type searchRequest struct {
	Query string `json:"query" validate:"required,max=200"`
}

type zoomRequest struct {
	Zoom *int `json:"zoom" validate:"required,gte=0,lte=19"`
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
