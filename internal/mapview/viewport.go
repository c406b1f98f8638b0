package mapview

import (
	"sync"

	"github.com/i474232898/weather-map/internal/weather"
)

const (
	MinZoom = 0
	MaxZoom = 19

	// Zoom levels used by the two map layouts.
	LocalZoom   = 10
	CountryZoom = 6
)

// ZoomListener is notified by the map widget whenever a zoom gesture ends.
type ZoomListener interface {
	OnZoom(level int)
}

// View is a snapshot of the viewport.
type View struct {
	Center weather.Coordinate `json:"center"`
	Zoom   int                `json:"zoom"`
}

// Viewport is display state only; it never affects which weather is fetched.
type Viewport struct {
	mu     sync.RWMutex
	center weather.Coordinate
	zoom   int
}

func NewViewport(center weather.Coordinate, zoom int) *Viewport {
	return &Viewport{center: center, zoom: clampZoom(zoom)}
}

// OnZoom records the zoom level reported by the widget, clamped to the tile range.
func (v *Viewport) OnZoom(level int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.zoom = clampZoom(level)
}

// Recenter moves the map to c, keeping the zoom level.
func (v *Viewport) Recenter(c weather.Coordinate) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.center = c
}

func (v *Viewport) View() View {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return View{Center: v.center, Zoom: v.zoom}
}

func clampZoom(level int) int {
	return min(max(level, MinZoom), MaxZoom)
}
