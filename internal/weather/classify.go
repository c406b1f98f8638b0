package weather

import "math"

// Classify maps a WMO weather code to a Category. The checks are ordered and the
// first match wins, so every integer resolves to exactly one category.
func Classify(code int) Category {
	switch {
	case code <= 1:
		return CategorySunny
	case code <= 3:
		return CategoryPartlySunny
	case code <= 48:
		return CategoryCloudy
	case code <= 67:
		return CategoryRain
	case code <= 77:
		return CategorySnow
	case code <= 82:
		return CategoryPartlyRainy
	case code <= 86:
		return CategoryPartlySnow
	default:
		return CategoryWindy
	}
}

// RoundTemperature rounds half-up towards positive infinity (-2.5 becomes -2).
func RoundTemperature(t float64) int {
	return int(math.Floor(t + 0.5))
}
