package types

import (
	"strings"

	"github.com/tastemichigan/api-go/models"
)

const (
	DefaultBoundsLimit = 200
	DefaultSearchLimit = 50
	DefaultNearbyLimit = 20
	MaxQueryLimit      = 500

	DefaultNearbyRadiusMiles = 10.0
)

// MapFilters shapes a place query. Empty lists and zero thresholds mean
// "no constraint"; list filters are OR within themselves and all filters AND together.
type MapFilters struct {
	Counties     []string `json:"counties"`
	Cuisines     []string `json:"cuisines"`
	Tags         []string `json:"tags"`
	PriceRange   [2]int   `json:"priceRange"`
	MinRating    float64  `json:"minRating"`
	FeaturedOnly bool     `json:"featuredOnly"`
	VerifiedOnly bool     `json:"verifiedOnly"`
}

func DefaultMapFilters() MapFilters {
	return MapFilters{PriceRange: [2]int{1, 4}}
}

// Normalize trims list values, drops blanks, and repairs the price range.
func (f MapFilters) Normalize() MapFilters {
	f.Counties = cleanList(f.Counties)
	f.Cuisines = cleanList(f.Cuisines)
	f.Tags = cleanList(f.Tags)

	lo, hi := f.PriceRange[0], f.PriceRange[1]
	if lo < 1 {
		lo = 1
	}
	if hi < 1 || hi > 4 {
		hi = 4
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	f.PriceRange = [2]int{lo, hi}

	if f.MinRating < 0 {
		f.MinRating = 0
	}
	return f
}

// PriceConstrained reports whether the range narrows anything.
func (f MapFilters) PriceConstrained() bool {
	return f.PriceRange[0] > 1 || f.PriceRange[1] < 4
}

// Matches evaluates the filters against a place in process. It mirrors the SQL
// built by the repository and never matches an unpublished place.
func (f MapFilters) Matches(p *models.Place) bool {
	if !p.Published() {
		return false
	}
	if len(f.Counties) > 0 && !containsFold(f.Counties, p.County) {
		return false
	}
	if len(f.Cuisines) > 0 && !overlaps(f.Cuisines, p.Cuisines) {
		return false
	}
	if len(f.Tags) > 0 && !overlaps(f.Tags, p.Tags) {
		return false
	}
	if p.PriceLevel < f.PriceRange[0] || p.PriceLevel > f.PriceRange[1] {
		return false
	}
	if f.MinRating > 0 && (p.Rating == nil || *p.Rating < f.MinRating) {
		return false
	}
	if f.FeaturedOnly && !p.IsFeatured {
		return false
	}
	if f.VerifiedOnly && !p.IsVerified {
		return false
	}
	return true
}

// MatchesText is the free-text predicate: a case-insensitive substring of
// name, city, county or address. An empty term matches everything.
func MatchesText(p *models.Place, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, field := range []string{p.Name, p.City, p.County, p.Address} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// SplitList expands repeated and comma separated query values.
func SplitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			out = append(out, part)
		}
	}
	return cleanList(out)
}

func cleanList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}

func overlaps(want, have []string) bool {
	for _, w := range want {
		if containsFold(have, w) {
			return true
		}
	}
	return false
}
