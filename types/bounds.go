package types

import "github.com/tastemichigan/api-go/geo"

// BoundingBox is a longitude/latitude rectangle as sent by the map view.
type BoundingBox struct {
	MinLng float64 `form:"minLng" json:"minLng"`
	MinLat float64 `form:"minLat" json:"minLat"`
	MaxLng float64 `form:"maxLng" json:"maxLng"`
	MaxLat float64 `form:"maxLat" json:"maxLat"`
}

// Validate rejects inverted or out-of-range rectangles. Degenerate boxes are
// rejected too since they can never contain a place.
func (b BoundingBox) Validate() error {
	switch {
	case b.MinLng < -180 || b.MaxLng > 180:
		return &InvalidBoundsError{Box: b, Reason: "longitude out of range"}
	case b.MinLat < -90 || b.MaxLat > 90:
		return &InvalidBoundsError{Box: b, Reason: "latitude out of range"}
	case b.MinLng >= b.MaxLng:
		return &InvalidBoundsError{Box: b, Reason: "minLng must be less than maxLng"}
	case b.MinLat >= b.MaxLat:
		return &InvalidBoundsError{Box: b, Reason: "minLat must be less than maxLat"}
	}
	return nil
}

func (b BoundingBox) Contains(lat, lng float64) bool {
	return b.geo().Contains(lat, lng)
}

func (b BoundingBox) geo() geo.Box {
	return geo.Box{MinLat: b.MinLat, MaxLat: b.MaxLat, MinLng: b.MinLng, MaxLng: b.MaxLng}
}

// BoxFromGeo converts a geo.Box into a BoundingBox.
func BoxFromGeo(g geo.Box) BoundingBox {
	return BoundingBox{MinLng: g.MinLng, MinLat: g.MinLat, MaxLng: g.MaxLng, MaxLat: g.MaxLat}
}
