package mapview

import (
	"fmt"

	"github.com/i474232898/weather-map/internal/weather"
)

// IconSize is the rendered icon size in pixels.
var IconSize = [2]int{96, 96}

// Icon describes the marker image for a weather category.
type Icon struct {
	URL  string `json:"url"`
	Size [2]int `json:"size"`
}

// Popup is the text shown when a marker is opened.
type Popup struct {
	Title       string `json:"title"`
	Weather     string `json:"weather"`
	Temperature string `json:"temperature"`
	Status      string `json:"status,omitempty"`
}

// Marker is one map pin. ID is the observation's position in its result set.
type Marker struct {
	ID       int        `json:"id"`
	Position [2]float64 `json:"position"` // [lat, lon]
	Icon     Icon       `json:"icon"`
	Popup    Popup      `json:"popup"`
}

// Labels are the popup captions for one locale.
type Labels struct {
	Weather     string `json:"weather"`
	Temperature string `json:"temperature"`
	Unavailable string `json:"unavailable"`
}

var (
	English = Labels{Weather: "Weather", Temperature: "Temperature", Unavailable: "unavailable"}
	Spanish = Labels{Weather: "Tiempo", Temperature: "Temperatura", Unavailable: "no disponible"}
)

// LabelsFor returns the labels for a locale code, English by default.
func LabelsFor(locale string) Labels {
	if locale == "es" {
		return Spanish
	}
	return English
}

// IconFor returns the icon for a category. Anything outside the eight
// categories gets the unknown icon.
func IconFor(c weather.Category) Icon {
	var name string
	switch c {
	case weather.CategorySunny:
		name = "weather-sunny"
	case weather.CategoryPartlySunny:
		name = "weather-partly-sunny"
	case weather.CategoryCloudy:
		name = "weather-cloudy"
	case weather.CategoryRain:
		name = "weather-rain"
	case weather.CategorySnow:
		name = "weather-snow"
	case weather.CategoryPartlyRainy:
		name = "weather-partly-rainy"
	case weather.CategoryPartlySnow:
		name = "weather-partly-snow"
	case weather.CategoryWindy:
		name = "weather-windy"
	default:
		name = "weather-unknown"
	}
	return Icon{URL: "/icons/" + name + ".png", Size: IconSize}
}

// FormatTemperature renders a temperature with its unit suffix.
func FormatTemperature(c int) string {
	return fmt.Sprintf("%d°C", c)
}

// Markers builds one marker per observation, in result-set order.
func Markers(set weather.ResultSet, labels Labels) []Marker {
	markers := make([]Marker, 0, len(set.Observations))
	for i, o := range set.Observations {
		markers = append(markers, newMarker(i, o, labels))
	}
	return markers
}

func newMarker(id int, o weather.Observation, labels Labels) Marker {
	m := Marker{
		ID:       id,
		Position: [2]float64{o.Latitude, o.Longitude},
		Icon:     IconFor(o.Category),
		Popup: Popup{
			Title:       o.Name,
			Weather:     fmt.Sprintf("%s: %s", labels.Weather, o.Category),
			Temperature: fmt.Sprintf("%s: %s", labels.Temperature, FormatTemperature(o.TemperatureC)),
		},
	}

	if o.Status != weather.StatusOK {
		m.Popup.Weather = fmt.Sprintf("%s: %s", labels.Weather, weather.StatusUnknown)
		m.Popup.Temperature = fmt.Sprintf("%s: --", labels.Temperature)
		m.Popup.Status = labels.Unavailable
	}
	return m
}
