// Package geo holds the small amount of spherical math the directory needs.
// Results are approximations good to city/county scale.
package geo

import "math"

// Unit selects the earth radius used by Distance.
type Unit int

const (
	Miles Unit = iota
	Kilometers
)

const (
	EarthRadiusMiles = 3959.0
	EarthRadiusKm    = 6371.0

	// MilesPerDegreeLat is the flat-earth approximation used for bounding boxes.
	MilesPerDegreeLat = 69.0
)

// Radius returns the earth radius for u.
func (u Unit) Radius() float64 {
	if u == Kilometers {
		return EarthRadiusKm
	}
	return EarthRadiusMiles
}

func (u Unit) String() string {
	if u == Kilometers {
		return "km"
	}
	return "mi"
}

// Distance returns the great-circle distance between two points using the
// Haversine formula.
func Distance(lat1, lon1, lat2, lon2 float64, unit Unit) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return unit.Radius() * c
}

// HaversineMiles is Distance in miles.
func HaversineMiles(lat1, lon1, lat2, lon2 float64) float64 {
	return Distance(lat1, lon1, lat2, lon2, Miles)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
