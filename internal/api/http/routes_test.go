package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-map/internal/location"
	"github.com/i474232898/weather-map/internal/mapview"
	"github.com/i474232898/weather-map/internal/store"
	"github.com/i474232898/weather-map/internal/weather"
)

type stubProvider struct {
	fail bool
}

func (p stubProvider) Name() string { return "stub" }

func (p stubProvider) Fetch(ctx context.Context, c weather.Coordinate) (weather.Reading, error) {
	if p.fail {
		return weather.Reading{}, errors.New("upstream down")
	}
	return weather.Reading{ObservedAt: time.Now().UTC(), WeatherCode: 0, TemperatureC: 21.5}, nil
}

type mapBody struct {
	CycleID string           `json:"cycleId"`
	Source  string           `json:"source"`
	View    mapview.View     `json:"view"`
	Markers []mapview.Marker `json:"markers"`
}

func newTestApp(t *testing.T, provider weather.Provider, policy weather.BatchPolicy, session *location.Session) (*fiber.App, *weather.Service) {
	t.Helper()

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": true, "message": err.Error()})
		},
	})

	svc := weather.NewService(store.NewMemoryStore(10, time.Hour), provider, policy)
	deps := Deps{
		Service:  svc,
		Source:   location.Static{},
		Viewport: mapview.NewViewport(location.SpainCenter, mapview.CountryZoom),
		Labels:   mapview.LabelsFor("es"),
	}
	if session != nil {
		deps.Source = session
		deps.Session = session
		deps.Viewport = mapview.NewViewport(session.Current().Coordinate, mapview.LocalZoom)
		deps.Labels = mapview.LabelsFor("en")
	}
	RegisterRoutes(app, deps)
	return app, svc
}

func do(t *testing.T, app *fiber.App, method, target, body string) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return resp, data
}

func TestObservationsBeforeFirstCycle(t *testing.T) {
	app, _ := newTestApp(t, stubProvider{}, weather.BatchIsolate, nil)

	resp, _ := do(t, app, http.MethodGet, "/api/v1/observations", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}

	resp, data := do(t, app, http.MethodGet, "/api/v1/map", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	var body mapBody
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Markers) != 0 || body.View.Zoom != mapview.CountryZoom {
		t.Fatalf("unexpected empty map: %+v", body)
	}
}

func TestRefreshSpainMap(t *testing.T) {
	app, svc := newTestApp(t, stubProvider{}, weather.BatchIsolate, nil)

	resp, data := do(t, app, http.MethodPost, "/api/v1/refresh", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, resp.StatusCode, data)
	}

	var body mapBody
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Source != "spain" || len(body.Markers) != 20 {
		t.Fatalf("unexpected map: source=%s markers=%d", body.Source, len(body.Markers))
	}
	m := body.Markers[0]
	if m.Popup.Title != "Madrid" || m.Popup.Weather != "Tiempo: sunny" || m.Popup.Temperature != "Temperatura: 22°C" {
		t.Fatalf("unexpected first marker: %+v", m)
	}
	if m.Icon.URL != "/icons/weather-sunny.png" {
		t.Fatalf("unexpected icon: %s", m.Icon.URL)
	}

	latest, err := svc.GetLatest()
	if err != nil || latest.CycleID != body.CycleID {
		t.Fatalf("stored set %q (%v) does not match response %q", latest.CycleID, err, body.CycleID)
	}

	resp, _ = do(t, app, http.MethodGet, "/api/v1/observations", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
}

func TestRefreshAbortReportsBadGateway(t *testing.T) {
	app, svc := newTestApp(t, stubProvider{fail: true}, weather.BatchAbort, nil)

	resp, _ := do(t, app, http.MethodPost, "/api/v1/refresh", "")
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected status %d, got %d", http.StatusBadGateway, resp.StatusCode)
	}
	if _, err := svc.GetLatest(); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("aborted batch must not be stored, got %v", err)
	}
}

func TestRefreshIsolateMarksUnavailable(t *testing.T) {
	app, _ := newTestApp(t, stubProvider{fail: true}, weather.BatchIsolate, nil)

	resp, data := do(t, app, http.MethodPost, "/api/v1/refresh", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	var body mapBody
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, m := range body.Markers {
		if m.Popup.Status != "no disponible" || m.Popup.Temperature != "Temperatura: --" {
			t.Fatalf("marker %s should be unavailable: %+v", m.Popup.Title, m.Popup)
		}
	}
}

func TestSessionRoutesDisabledForSpain(t *testing.T) {
	app, _ := newTestApp(t, stubProvider{}, weather.BatchIsolate, nil)

	for _, target := range []string{"/api/v1/locate", "/api/v1/search"} {
		resp, _ := do(t, app, http.MethodPost, target, `{"query":"Sevilla"}`)
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("%s: expected status %d, got %d", target, http.StatusNotFound, resp.StatusCode)
		}
	}
}

func TestLocate(t *testing.T) {
	tests := []struct {
		name string
		body string
		want weather.Coordinate
		code int
	}{
		{name: "device position", body: `{"latitude":40.4168,"longitude":-3.7038}`, want: weather.Coordinate{Latitude: 40.4168, Longitude: -3.7038}, code: http.StatusOK},
		{name: "denied", body: `{"denied":true}`, want: location.DefaultLocation.Coordinate, code: http.StatusOK},
		{name: "no body", body: "", want: location.DefaultLocation.Coordinate, code: http.StatusOK},
		{name: "half a position", body: `{"latitude":40.4168}`, code: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newTestApp(t, stubProvider{}, weather.BatchIsolate, location.NewSession(nil))

			resp, data := do(t, app, http.MethodPost, "/api/v1/locate", tt.body)
			if resp.StatusCode != tt.code {
				t.Fatalf("expected status %d, got %d: %s", tt.code, resp.StatusCode, data)
			}
			if tt.code != http.StatusOK {
				return
			}

			var body mapBody
			if err := json.Unmarshal(data, &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(body.Markers) != 1 {
				t.Fatalf("expected one marker, got %d", len(body.Markers))
			}
			got := body.Markers[0].Position
			if got != [2]float64{tt.want.Latitude, tt.want.Longitude} {
				t.Fatalf("marker at %v, want %+v", got, tt.want)
			}
			if body.View.Center != tt.want {
				t.Fatalf("viewport centered at %+v, want %+v", body.View.Center, tt.want)
			}
		})
	}
}

func TestSearch(t *testing.T) {
	session := location.NewSession(nil)
	app, _ := newTestApp(t, stubProvider{}, weather.BatchIsolate, session)

	resp, _ := do(t, app, http.MethodPost, "/api/v1/search", `{"query":""}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
	resp, _ = do(t, app, http.MethodPost, "/api/v1/search", `{"query":"   "}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("blank query: expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}

	resp, data := do(t, app, http.MethodPost, "/api/v1/search", `{"query":"Girona"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, resp.StatusCode, data)
	}
	var body mapBody
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Markers) != 1 || body.Markers[0].Popup.Title != "Girona" {
		t.Fatalf("unexpected markers: %+v", body.Markers)
	}
	pos := body.Markers[0].Position
	from := location.DefaultLocation
	if pos[0] < from.Latitude-0.1 || pos[0] > from.Latitude+0.1 || pos[1] < from.Longitude-0.1 || pos[1] > from.Longitude+0.1 {
		t.Fatalf("search result %v too far from %+v", pos, from.Coordinate)
	}
	if session.Current().Name != "Girona" {
		t.Fatalf("session did not move to the search result")
	}
}

func TestViewportZoom(t *testing.T) {
	app, _ := newTestApp(t, stubProvider{}, weather.BatchIsolate, nil)

	resp, data := do(t, app, http.MethodPut, "/api/v1/viewport/zoom", `{"zoom":0}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, resp.StatusCode, data)
	}
	var view mapview.View
	if err := json.Unmarshal(data, &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Zoom != 0 {
		t.Fatalf("zoom = %d, want 0", view.Zoom)
	}

	for _, body := range []string{`{"zoom":20}`, `{"zoom":-1}`, `{}`} {
		resp, _ := do(t, app, http.MethodPut, "/api/v1/viewport/zoom", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected status %d, got %d", body, http.StatusBadRequest, resp.StatusCode)
		}
	}
}

func TestHistoryValidation(t *testing.T) {
	app, _ := newTestApp(t, stubProvider{}, weather.BatchIsolate, nil)

	tests := []struct {
		target string
		code   int
	}{
		{target: "/api/v1/history", code: http.StatusBadRequest},
		{target: "/api/v1/history?from=yesterday&to=today", code: http.StatusBadRequest},
		{target: "/api/v1/history?from=2000&to=1000", code: http.StatusBadRequest},
		{target: "/api/v1/history?from=1000&to=2000", code: http.StatusNotFound},
	}
	for _, tt := range tests {
		resp, _ := do(t, app, http.MethodGet, tt.target, "")
		if resp.StatusCode != tt.code {
			t.Fatalf("%s: expected status %d, got %d", tt.target, tt.code, resp.StatusCode)
		}
	}

	do(t, app, http.MethodPost, "/api/v1/refresh", "")
	now := time.Now().UTC()
	target := "/api/v1/history?from=" + now.Add(-time.Hour).Format(time.RFC3339) + "&to=" + now.Add(time.Hour).Format(time.RFC3339)
	resp, data := do(t, app, http.MethodGet, target, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, resp.StatusCode, data)
	}
}

func TestParseTime(t *testing.T) {
	ts, err := parseTime("1700000000")
	if err != nil || !ts.Equal(time.Unix(1700000000, 0)) {
		t.Fatalf("unix seconds: %v %v", ts, err)
	}
	ts, err = parseTime("2024-01-02T03:04:05Z")
	if err != nil || ts.Year() != 2024 {
		t.Fatalf("rfc3339: %v %v", ts, err)
	}
	if _, err := parseTime("noon"); err == nil {
		t.Fatal("expected error")
	}
}
