package repository

import (
	"context"
	"errors"
	"time"

	"github.com/tastemichigan/api-go/metrics"
	"github.com/tastemichigan/api-go/models"
	"github.com/tastemichigan/api-go/types"
	"gorm.io/gorm"
)

// PlaceRepository is the place store used by handlers, the importer and the snapshot.
// Empty results come back as an empty slice and a nil error; store failures
// are always a *types.QueryError.
type PlaceRepository interface {
	InBounds(ctx context.Context, box types.BoundingBox, filters types.MapFilters, limit int) ([]models.Place, error)
	Search(ctx context.Context, term string, filters types.MapFilters, limit int) ([]models.Place, error)
	BySlug(ctx context.Context, slug string) (*models.Place, error)
	Nearby(ctx context.Context, lat, lng, radiusMiles float64, limit int) ([]types.NearbyPlace, error)
	Upsert(ctx context.Context, place *models.Place) (*models.Place, error)
	Delete(ctx context.Context, id string) error
	Dashboard(ctx context.Context) (*types.DashboardCounts, error)
	ListAll(ctx context.Context, status models.PlaceStatus, limit, offset int) ([]models.Place, int64, error)
	AllPublished(ctx context.Context) ([]models.Place, error)
	Counties(ctx context.Context) ([]types.CountyCount, error)
	SlugTaken(ctx context.Context, slug string) (bool, error)
}

type GormPlaceRepository struct {
	DB *gorm.DB
}

func NewPlaceRepository(db *gorm.DB) *GormPlaceRepository {
	return &GormPlaceRepository{DB: db}
}

func (r *GormPlaceRepository) InBounds(ctx context.Context, box types.BoundingBox, filters types.MapFilters, limit int) ([]models.Place, error) {
	if err := box.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	places := []models.Place{}
	err := boundsQuery(r.DB.WithContext(ctx), box, filters, types.ClampLimit(limit, types.DefaultBoundsLimit)).
		Find(&places).Error
	metrics.RecordQuery("in_bounds", start, err)
	if err != nil {
		return nil, &types.QueryError{Op: "places in bounds", Err: err}
	}
	return places, nil
}

func (r *GormPlaceRepository) Search(ctx context.Context, term string, filters types.MapFilters, limit int) ([]models.Place, error) {
	start := time.Now()
	places := []models.Place{}
	err := searchQuery(r.DB.WithContext(ctx), term, filters, types.ClampLimit(limit, types.DefaultSearchLimit)).
		Find(&places).Error
	metrics.RecordQuery("search", start, err)
	if err != nil {
		return nil, &types.QueryError{Op: "search places", Err: err}
	}
	return places, nil
}

func (r *GormPlaceRepository) BySlug(ctx context.Context, slug string) (*models.Place, error) {
	start := time.Now()
	var place models.Place
	err := published(r.DB.WithContext(ctx)).Where("slug = ?", slug).First(&place).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.RecordQuery("by_slug", start, nil)
		return nil, types.ErrNotFound
	}
	metrics.RecordQuery("by_slug", start, err)
	if err != nil {
		return nil, &types.QueryError{Op: "place by slug", Err: err}
	}
	return &place, nil
}

func (r *GormPlaceRepository) Nearby(ctx context.Context, lat, lng, radiusMiles float64, limit int) ([]types.NearbyPlace, error) {
	if radiusMiles <= 0 {
		return nil, &types.ValidationError{Field: "radius", Message: "must be greater than zero"}
	}

	start := time.Now()
	places := []types.NearbyPlace{}
	err := nearbyQuery(r.DB.WithContext(ctx), lat, lng, radiusMiles, types.ClampLimit(limit, types.DefaultNearbyLimit)).
		Find(&places).Error
	metrics.RecordQuery("nearby", start, err)
	if err != nil {
		return nil, &types.QueryError{Op: "nearby places", Err: err}
	}
	return places, nil
}

// Upsert inserts the place or overwrites the existing row with the same id
// (when given) or slug. The returned record reflects the stored row.
func (r *GormPlaceRepository) Upsert(ctx context.Context, place *models.Place) (*models.Place, error) {
	start := time.Now()
	err := upsertQuery(r.DB.WithContext(ctx), place).Create(place).Error
	metrics.RecordQuery("upsert", start, err)
	if err != nil {
		return nil, &types.QueryError{Op: "upsert place", Err: err}
	}
	return place, nil
}

func (r *GormPlaceRepository) Delete(ctx context.Context, id string) error {
	start := time.Now()
	result := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Place{})
	metrics.RecordQuery("delete", start, result.Error)
	if result.Error != nil {
		return &types.QueryError{Op: "delete place", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *GormPlaceRepository) Dashboard(ctx context.Context) (*types.DashboardCounts, error) {
	start := time.Now()
	var counts types.DashboardCounts
	err := dashboardQuery(r.DB.WithContext(ctx)).Scan(&counts).Error
	metrics.RecordQuery("dashboard", start, err)
	if err != nil {
		return nil, &types.QueryError{Op: "dashboard counts", Err: err}
	}
	return &counts, nil
}

// ListAll pages through places of any status, newest edits first. An empty
// status lists everything.
func (r *GormPlaceRepository) ListAll(ctx context.Context, status models.PlaceStatus, limit, offset int) ([]models.Place, int64, error) {
	start := time.Now()
	q := r.DB.WithContext(ctx).Model(&models.Place{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		metrics.RecordQuery("list_all", start, err)
		return nil, 0, &types.QueryError{Op: "count places", Err: err}
	}

	places := []models.Place{}
	err := q.Order("updated_at DESC").
		Limit(types.ClampLimit(limit, types.DefaultSearchLimit)).
		Offset(offset).
		Find(&places).Error
	metrics.RecordQuery("list_all", start, err)
	if err != nil {
		return nil, 0, &types.QueryError{Op: "list places", Err: err}
	}
	return places, total, nil
}

func (r *GormPlaceRepository) AllPublished(ctx context.Context) ([]models.Place, error) {
	start := time.Now()
	places := []models.Place{}
	err := prominence(published(r.DB.WithContext(ctx).Model(&models.Place{}))).Find(&places).Error
	metrics.RecordQuery("all_published", start, err)
	if err != nil {
		return nil, &types.QueryError{Op: "all published places", Err: err}
	}
	return places, nil
}

func (r *GormPlaceRepository) Counties(ctx context.Context) ([]types.CountyCount, error) {
	start := time.Now()
	counties := []types.CountyCount{}
	err := countiesQuery(r.DB.WithContext(ctx)).Scan(&counties).Error
	metrics.RecordQuery("counties", start, err)
	if err != nil {
		return nil, &types.QueryError{Op: "county counts", Err: err}
	}
	return counties, nil
}

// SlugTaken checks every status, since slugs are unique across drafts and archives too.
func (r *GormPlaceRepository) SlugTaken(ctx context.Context, slug string) (bool, error) {
	start := time.Now()
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.Place{}).Where("slug = ?", slug).Count(&count).Error
	metrics.RecordQuery("slug_taken", start, err)
	if err != nil {
		return false, &types.QueryError{Op: "slug lookup", Err: err}
	}
	return count > 0, nil
}
