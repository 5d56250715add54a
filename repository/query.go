package repository

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/tastemichigan/api-go/geo"
	"github.com/tastemichigan/api-go/models"
	"github.com/tastemichigan/api-go/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// haversineSQL is the great-circle distance in miles from a (lat, lat, lng)
// parameter triple to each row's point.
var haversineSQL = fmt.Sprintf(
	"(2 * %g * asin(LEAST(1.0, sqrt(power(sin(radians(latitude - ?) / 2), 2) + "+
		"cos(radians(?)) * cos(radians(latitude)) * power(sin(radians(longitude - ?) / 2), 2)))))",
	geo.EarthRadiusMiles,
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func published(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", models.StatusPublished)
}

// prominence is the shared ordering of bounds and search results.
func prominence(db *gorm.DB) *gorm.DB {
	return db.Order("is_featured DESC").Order("rating DESC NULLS LAST").Order("name ASC")
}

func withinBounds(db *gorm.DB, b types.BoundingBox) *gorm.DB {
	return db.Where("longitude BETWEEN ? AND ?", b.MinLng, b.MaxLng).
		Where("latitude BETWEEN ? AND ?", b.MinLat, b.MaxLat)
}

// matchingText applies the case-insensitive substring search. Any one of the
// four columns matching is enough.
func matchingText(db *gorm.DB, term string) *gorm.DB {
	term = strings.TrimSpace(term)
	if term == "" {
		return db
	}
	pattern := "%" + likeEscaper.Replace(term) + "%"
	return db.Where("(name ILIKE ? OR city ILIKE ? OR county ILIKE ? OR address ILIKE ?)",
		pattern, pattern, pattern, pattern)
}

// withFilters ANDs every active filter onto the query. List filters match
// case-insensitively and are OR within themselves.
func withFilters(db *gorm.DB, f types.MapFilters) *gorm.DB {
	if len(f.Counties) > 0 {
		db = db.Where("LOWER(county) IN ?", lowered(f.Counties))
	}
	if len(f.Cuisines) > 0 {
		db = db.Where("EXISTS (SELECT 1 FROM unnest(cuisines) AS c WHERE LOWER(c) = ANY(?))", pq.Array(lowered(f.Cuisines)))
	}
	if len(f.Tags) > 0 {
		db = db.Where("EXISTS (SELECT 1 FROM unnest(tags) AS t WHERE LOWER(t) = ANY(?))", pq.Array(lowered(f.Tags)))
	}
	if f.PriceConstrained() {
		db = db.Where("price_level BETWEEN ? AND ?", f.PriceRange[0], f.PriceRange[1])
	}
	if f.MinRating > 0 {
		db = db.Where("rating >= ?", f.MinRating)
	}
	if f.FeaturedOnly {
		db = db.Where("is_featured = ?", true)
	}
	if f.VerifiedOnly {
		db = db.Where("is_verified = ?", true)
	}
	return db
}

func boundsQuery(db *gorm.DB, b types.BoundingBox, f types.MapFilters, limit int) *gorm.DB {
	q := published(db.Model(&models.Place{}))
	q = withinBounds(q, b)
	q = withFilters(q, f)
	return prominence(q).Limit(limit)
}

func searchQuery(db *gorm.DB, term string, f types.MapFilters, limit int) *gorm.DB {
	q := published(db.Model(&models.Place{}))
	q = matchingText(q, term)
	q = withFilters(q, f)
	return prominence(q).Limit(limit)
}

// nearbyQuery prefilters on the rectangle enclosing the great circle so the
// distance is only computed for candidate rows.
func nearbyQuery(db *gorm.DB, lat, lng, radiusMiles float64, limit int) *gorm.DB {
	box := types.BoxFromGeo(geo.EnclosingBox(lat, lng, radiusMiles))

	q := db.Table("places").
		Select("places.*, "+haversineSQL+" AS distance_miles", lat, lat, lng)
	q = published(q)
	q = withinBounds(q, box)
	return q.Where(haversineSQL+" <= ?", lat, lat, lng, radiusMiles).
		Order("distance_miles ASC").
		Limit(limit)
}

func dashboardQuery(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Place{}).Select(
		"COUNT(*) AS total, " +
			"COALESCE(SUM(CASE WHEN status = 'published' THEN 1 ELSE 0 END), 0) AS published, " +
			"COALESCE(SUM(CASE WHEN status = 'draft' THEN 1 ELSE 0 END), 0) AS draft, " +
			"COALESCE(SUM(CASE WHEN status = 'archived' THEN 1 ELSE 0 END), 0) AS archived, " +
			"COALESCE(SUM(CASE WHEN is_featured THEN 1 ELSE 0 END), 0) AS featured, " +
			"COALESCE(SUM(CASE WHEN is_verified THEN 1 ELSE 0 END), 0) AS verified, " +
			"COUNT(DISTINCT NULLIF(county, '')) AS counties",
	)
}

// countiesQuery groups published places per county for the filter facets.
func countiesQuery(db *gorm.DB) *gorm.DB {
	return published(db.Model(&models.Place{})).
		Select("county, COUNT(*) AS places, AVG(rating) AS avg_rating").
		Where("county <> ''").
		Group("county").
		Order("places DESC, county ASC")
}

// upsertColumns are overwritten on conflict. id and created_at are kept.
var upsertColumns = []string{
	"name", "slug", "address", "city", "county", "state", "zip",
	"latitude", "longitude", "cuisines", "tags", "price_level", "rating",
	"website", "phone", "ig_url", "hours", "hero_image_url",
	"is_featured", "is_verified", "status", "updated_at",
}

// upsertQuery conflicts on id when the caller knows it, else on slug, and
// returns the stored row so an existing id wins over a freshly generated one.
func upsertQuery(db *gorm.DB, place *models.Place) *gorm.DB {
	target := "slug"
	if place.ID != "" {
		target = "id"
	}
	return db.Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: target}},
			DoUpdates: clause.AssignmentColumns(upsertColumns),
		},
		clause.Returning{},
	)
}

func lowered(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}
