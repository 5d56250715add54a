package types

import (
	"strings"

	"github.com/tastemichigan/api-go/models"
)

// PlacesQuery is the query string accepted by GET /api/places.
type PlacesQuery struct {
	BoundingBox
	Q         string   `form:"q"`
	County    []string `form:"county"`
	Cuisine   []string `form:"cuisine"`
	Tag       []string `form:"tag"`
	MinPrice  int      `form:"minPrice" binding:"omitempty,min=1,max=4"`
	MaxPrice  int      `form:"maxPrice" binding:"omitempty,min=1,max=4"`
	MinRating float64  `form:"minRating" binding:"omitempty,min=0,max=5"`
	Featured  bool     `form:"featured"`
	Verified  bool     `form:"verified"`
	Limit     int      `form:"limit" binding:"omitempty,min=1,max=500"`
}

// HasBoundsParams reports whether any rectangle parameter was supplied.
func HasBoundsParams(raw map[string][]string) bool {
	for _, k := range []string{"minLng", "minLat", "maxLng", "maxLat"} {
		if _, ok := raw[k]; ok {
			return true
		}
	}
	return false
}

func (q PlacesQuery) Filters() MapFilters {
	f := DefaultMapFilters()
	f.Counties = SplitList(q.County)
	f.Cuisines = SplitList(q.Cuisine)
	f.Tags = SplitList(q.Tag)
	if q.MinPrice > 0 {
		f.PriceRange[0] = q.MinPrice
	}
	if q.MaxPrice > 0 {
		f.PriceRange[1] = q.MaxPrice
	}
	f.MinRating = q.MinRating
	f.FeaturedOnly = q.Featured
	f.VerifiedOnly = q.Verified
	return f.Normalize()
}

func (q PlacesQuery) SearchTerm() string {
	return strings.TrimSpace(q.Q)
}

// NearbyQuery is the query string accepted by GET /api/places/nearby.
type NearbyQuery struct {
	Latitude  *float64 `form:"lat" binding:"required,min=-90,max=90"`
	Longitude *float64 `form:"lng" binding:"required,min=-180,max=180"`
	Radius    float64  `form:"radius" binding:"omitempty,gt=0,max=500"`
	Limit     int      `form:"limit" binding:"omitempty,min=1,max=500"`
}

// MapQuery drives the snapshot-backed map view.
type MapQuery struct {
	PlacesQuery
	NearLat *float64 `form:"near_lat" binding:"omitempty,min=-90,max=90"`
	NearLng *float64 `form:"near_lng" binding:"omitempty,min=-180,max=180"`
}

// NearbyPlace is a place annotated with its distance from the query point.
type NearbyPlace struct {
	models.Place
	DistanceMiles float64 `json:"distance_miles" gorm:"column:distance_miles"`
}

// MapPlace is a snapshot place with an optional distance from the viewer.
type MapPlace struct {
	*models.Place
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

type DashboardCounts struct {
	Total     int64 `json:"total"`
	Published int64 `json:"published"`
	Draft     int64 `json:"draft"`
	Archived  int64 `json:"archived"`
	Featured  int64 `json:"featured"`
	Verified  int64 `json:"verified"`
	Counties  int64 `json:"counties"`
}

// CountyCount is one row of the county facet list.
type CountyCount struct {
	County    string   `json:"county"`
	Places    int64    `json:"places"`
	AvgRating *float64 `json:"avg_rating"`
}

// ClampLimit applies a default and the global ceiling.
func ClampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > MaxQueryLimit {
		return MaxQueryLimit
	}
	return limit
}
