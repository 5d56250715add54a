package geo

import "math"

// Box is an axis-aligned latitude/longitude rectangle.
type Box struct {
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLng float64 `json:"minLng"`
	MaxLng float64 `json:"maxLng"`
}

// BoundingBoxFromCenter returns the rectangle enclosing a circle of
// radiusMiles around (lat, lng). Longitude degrees shrink with cos(latitude).
func BoundingBoxFromCenter(lat, lng, radiusMiles float64) Box {
	latDelta := radiusMiles / MilesPerDegreeLat

	lngDelta := 180.0
	if c := math.Cos(toRadians(lat)); c > 1e-9 {
		lngDelta = math.Min(radiusMiles/(MilesPerDegreeLat*c), 180)
	}

	return Box{
		MinLat: lat - latDelta,
		MaxLat: lat + latDelta,
		MinLng: lng - lngDelta,
		MaxLng: lng + lngDelta,
	}
}

// Contains reports whether the point lies inside b, edges included.
func (b Box) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// EnclosingBox returns the smallest rectangle holding every point within
// radiusMiles great-circle distance of (lat, lng). The longitude span is
// asin(sin δ / cos φ), which is wider than the flat-earth estimate for large
// radii. A circle reaching a pole spans every longitude.
func EnclosingBox(lat, lng, radiusMiles float64) Box {
	angular := radiusMiles / EarthRadiusMiles
	latDelta := angular * 180 / math.Pi

	box := Box{
		MinLat: lat - latDelta,
		MaxLat: lat + latDelta,
		MinLng: -180,
		MaxLng: 180,
	}
	if box.MaxLat >= 90 || box.MinLat <= -90 {
		box.MinLat = math.Max(box.MinLat, -90)
		box.MaxLat = math.Min(box.MaxLat, 90)
		return box
	}

	ratio := math.Sin(angular) / math.Cos(toRadians(lat))
	if ratio >= 1 {
		return box
	}
	lngDelta := math.Asin(ratio) * 180 / math.Pi
	box.MinLng = lng - lngDelta
	box.MaxLng = lng + lngDelta
	return box
}
