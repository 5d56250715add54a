package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tastemichigan/api-go/geo"
	"github.com/tastemichigan/api-go/metrics"
	"github.com/tastemichigan/api-go/models"
	"github.com/tastemichigan/api-go/types"
	"golang.org/x/sync/singleflight"
)

const snapshotLoadTimeout = 15 * time.Second

type PlaceLoader interface {
	AllPublished(ctx context.Context) ([]models.Place, error)
}

// PlaceSnapshot keeps every published place in memory for the map view.
// It reloads at most once per freshness window and concurrent reloads
// collapse into one.
type PlaceSnapshot struct {
	loader    PlaceLoader
	freshness time.Duration
	now       func() time.Time
	group     singleflight.Group

	mu       sync.RWMutex
	places   []models.Place
	loadedAt time.Time
}

func NewPlaceSnapshot(loader PlaceLoader, freshness time.Duration) *PlaceSnapshot {
	if freshness <= 0 {
		freshness = 5 * time.Minute
	}
	return &PlaceSnapshot{loader: loader, freshness: freshness, now: time.Now}
}

// Places returns the current snapshot, reloading it when stale. A failed
// reload serves the previous snapshot if there is one.
func (s *PlaceSnapshot) Places(ctx context.Context) ([]models.Place, error) {
	s.mu.RLock()
	places, loadedAt := s.places, s.loadedAt
	s.mu.RUnlock()

	if places != nil && s.now().Sub(loadedAt) < s.freshness {
		return places, nil
	}

	v, err, _ := s.group.Do("places", func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), snapshotLoadTimeout)
		defer cancel()
		return s.load(loadCtx)
	})
	if err != nil {
		if places != nil {
			log.Ctx(ctx).Warn().Err(err).Time("loaded_at", loadedAt).Msg("place snapshot reload failed, serving stale snapshot")
			return places, nil
		}
		return nil, err
	}
	return v.([]models.Place), nil
}

func (s *PlaceSnapshot) load(ctx context.Context) ([]models.Place, error) {
	places, err := s.loader.AllPublished(ctx)
	if err != nil {
		metrics.SnapshotLoads.WithLabelValues("failure").Inc()
		return nil, err
	}

	s.mu.Lock()
	s.places = places
	s.loadedAt = s.now()
	s.mu.Unlock()

	metrics.SnapshotLoads.WithLabelValues("success").Inc()
	metrics.SnapshotSize.Set(float64(len(places)))
	return places, nil
}

// Invalidate forces the next read to reload. Called after admin writes.
func (s *PlaceSnapshot) Invalidate() {
	s.mu.Lock()
	s.loadedAt = time.Time{}
	s.mu.Unlock()
}

// MapRequest filters the snapshot. Bounds and Near are optional.
type MapRequest struct {
	Bounds  *types.BoundingBox
	Filters types.MapFilters
	Term    string
	Near    *types.Location
	Limit   int
}

// Query filters the snapshot in process with the same semantics as the SQL
// search. With a reference point the result is ordered by distance in km.
func (s *PlaceSnapshot) Query(ctx context.Context, req MapRequest) ([]types.MapPlace, error) {
	if req.Bounds != nil {
		if err := req.Bounds.Validate(); err != nil {
			return nil, err
		}
	}

	places, err := s.Places(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]types.MapPlace, 0)
	for i := range places {
		p := &places[i]
		if req.Bounds != nil && !req.Bounds.Contains(p.Latitude, p.Longitude) {
			continue
		}
		if !req.Filters.Matches(p) || !types.MatchesText(p, req.Term) {
			continue
		}
		mp := types.MapPlace{Place: p}
		if req.Near != nil {
			d := geo.Distance(req.Near.Latitude, req.Near.Longitude, p.Latitude, p.Longitude, geo.Kilometers)
			mp.DistanceKm = &d
		}
		out = append(out, mp)
	}

	if req.Near != nil {
		sort.SliceStable(out, func(i, j int) bool {
			return *out[i].DistanceKm < *out[j].DistanceKm
		})
	}

	if limit := types.ClampLimit(req.Limit, types.DefaultBoundsLimit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
