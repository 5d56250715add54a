package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tastemichigan/api-go/models"
	"github.com/tastemichigan/api-go/types"
)

type countingLoader struct {
	calls  atomic.Int32
	delay  time.Duration
	err    error
	places []models.Place
}

func (l *countingLoader) AllPublished(ctx context.Context) ([]models.Place, error) {
	l.calls.Add(1)
	time.Sleep(l.delay)
	if l.err != nil {
		return nil, l.err
	}
	return l.places, nil
}

func rating(v float64) *float64 { return &v }

func snapshotPlaces() []models.Place {
	return []models.Place{
		{ID: "1", Name: "Slows Bar BQ", City: "Detroit", County: "Wayne", Latitude: 42.3314, Longitude: -83.0458, Cuisines: []string{"BBQ"}, PriceLevel: 2, Rating: rating(4.5), IsFeatured: true, Status: models.StatusPublished},
		{ID: "2", Name: "Founders Taproom", City: "Grand Rapids", County: "Kent", Latitude: 42.9634, Longitude: -85.6681, Cuisines: []string{"Pub"}, PriceLevel: 2, Rating: rating(4.2), Status: models.StatusPublished},
		{ID: "3", Name: "Zingerman's Deli", City: "Ann Arbor", County: "Washtenaw", Latitude: 42.2808, Longitude: -83.7430, Cuisines: []string{"Deli"}, PriceLevel: 3, Rating: rating(4.7), IsVerified: true, Status: models.StatusPublished},
		{ID: "4", Name: "Hidden Draft", City: "Detroit", County: "Wayne", Latitude: 42.34, Longitude: -83.05, PriceLevel: 1, Status: models.StatusDraft},
	}
}

func TestPlaceSnapshotCollapsesConcurrentLoads(t *testing.T) {
	loader := &countingLoader{delay: 50 * time.Millisecond, places: snapshotPlaces()}
	snap := NewPlaceSnapshot(loader, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := snap.Places(context.Background()); err != nil {
				t.Errorf("Places() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := loader.calls.Load(); got != 1 {
		t.Errorf("loader called %d times, want 1", got)
	}
}

func TestPlaceSnapshotFreshnessWindow(t *testing.T) {
	loader := &countingLoader{places: snapshotPlaces()}
	snap := NewPlaceSnapshot(loader, time.Minute)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	snap.now = func() time.Time { return now }

	snap.Places(context.Background())
	now = now.Add(30 * time.Second)
	snap.Places(context.Background())
	if got := loader.calls.Load(); got != 1 {
		t.Errorf("reloaded inside the window: %d loads", got)
	}

	now = now.Add(time.Minute)
	snap.Places(context.Background())
	if got := loader.calls.Load(); got != 2 {
		t.Errorf("stale snapshot not reloaded: %d loads", got)
	}

	snap.Invalidate()
	snap.Places(context.Background())
	if got := loader.calls.Load(); got != 3 {
		t.Errorf("Invalidate did not force a reload: %d loads", got)
	}
}

func TestPlaceSnapshotServesStaleOnFailure(t *testing.T) {
	loader := &countingLoader{places: snapshotPlaces()}
	snap := NewPlaceSnapshot(loader, time.Minute)

	if _, err := snap.Places(context.Background()); err != nil {
		t.Fatalf("Places() error = %v", err)
	}
	snap.Invalidate()
	loader.err = &types.QueryError{Op: "all published places", Err: errors.New("db down")}

	places, err := snap.Places(context.Background())
	if err != nil {
		t.Fatalf("stale snapshot should be served, got %v", err)
	}
	if len(places) != 4 {
		t.Errorf("got %d places", len(places))
	}

	cold := NewPlaceSnapshot(&countingLoader{err: loader.err}, time.Minute)
	if _, err := cold.Places(context.Background()); !errors.Is(err, types.ErrQueryFailed) {
		t.Errorf("cold failure error = %v, want ErrQueryFailed", err)
	}
}

func TestPlaceSnapshotQuery(t *testing.T) {
	snap := NewPlaceSnapshot(&countingLoader{places: snapshotPlaces()}, time.Minute)
	ctx := context.Background()

	t.Run("drafts never returned", func(t *testing.T) {
		got, err := snap.Query(ctx, MapRequest{Filters: types.DefaultMapFilters()})
		if err != nil {
			t.Fatalf("Query() error = %v", err)
		}
		if len(got) != 3 {
			t.Errorf("got %d places, want 3 published", len(got))
		}
	})

	t.Run("bounds and filters", func(t *testing.T) {
		box := types.BoundingBox{MinLng: -84, MinLat: 42, MaxLng: -82.9, MaxLat: 42.5}
		f := types.DefaultMapFilters()
		f.VerifiedOnly = true
		got, err := snap.Query(ctx, MapRequest{Bounds: &box, Filters: f})
		if err != nil {
			t.Fatalf("Query() error = %v", err)
		}
		if len(got) != 1 || got[0].ID != "3" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("text search", func(t *testing.T) {
		got, err := snap.Query(ctx, MapRequest{Filters: types.DefaultMapFilters(), Term: "grand"})
		if err != nil {
			t.Fatalf("Query() error = %v", err)
		}
		if len(got) != 1 || got[0].ID != "2" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("ordered by km distance", func(t *testing.T) {
		near := &types.Location{Latitude: 42.96, Longitude: -85.67}
		got, err := snap.Query(ctx, MapRequest{Filters: types.DefaultMapFilters(), Near: near})
		if err != nil {
			t.Fatalf("Query() error = %v", err)
		}
		if got[0].ID != "2" {
			t.Errorf("closest = %s, want 2", got[0].ID)
		}
		for i := 1; i < len(got); i++ {
			if *got[i].DistanceKm < *got[i-1].DistanceKm {
				t.Errorf("not sorted at %d", i)
			}
		}
		// Grand Rapids to Detroit is roughly 225 km.
		if d := *got[len(got)-1].DistanceKm; d < 215 || d > 235 {
			t.Errorf("farthest distance = %.1f km", d)
		}
	})

	t.Run("inverted bounds rejected", func(t *testing.T) {
		box := types.BoundingBox{MinLng: -82, MinLat: 42, MaxLng: -84, MaxLat: 43}
		if _, err := snap.Query(ctx, MapRequest{Bounds: &box}); !errors.Is(err, types.ErrInvalidBounds) {
			t.Errorf("error = %v, want ErrInvalidBounds", err)
		}
	})
}
