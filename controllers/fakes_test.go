package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tastemichigan/api-go/models"
	"github.com/tastemichigan/api-go/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var errStoreDown = &types.QueryError{Op: "test", Err: errors.New("connection refused")}

// fakePlaces is an in-memory PlaceRepository. Setting err fails every call.
type fakePlaces struct {
	mu       sync.Mutex
	places   []models.Place
	err      error
	upserted []*models.Place
	deleted  []string

	lastFilters types.MapFilters
	lastTerm    string
	lastLimit   int
	lastLat     float64
	lastLng     float64
	lastOffset  int
	lastStatus  models.PlaceStatus
	calls       []string
}

func (f *fakePlaces) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakePlaces) InBounds(ctx context.Context, box types.BoundingBox, filters types.MapFilters, limit int) ([]models.Place, error) {
	f.record("InBounds")
	if err := box.Validate(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	f.lastFilters, f.lastLimit = filters, limit
	out := []models.Place{}
	for _, p := range f.places {
		if box.Contains(p.Latitude, p.Longitude) && filters.Matches(&p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePlaces) Search(ctx context.Context, term string, filters types.MapFilters, limit int) ([]models.Place, error) {
	f.record("Search")
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	f.lastTerm, f.lastFilters, f.lastLimit = term, filters, limit
	f.mu.Unlock()
	out := []models.Place{}
	for _, p := range f.places {
		if filters.Matches(&p) && types.MatchesText(&p, term) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePlaces) BySlug(ctx context.Context, slug string) (*models.Place, error) {
	f.record("BySlug")
	if f.err != nil {
		return nil, f.err
	}
	for _, p := range f.places {
		if p.Slug == slug && p.Published() {
			return &p, nil
		}
	}
	return nil, types.ErrNotFound
}

func (f *fakePlaces) Nearby(ctx context.Context, lat, lng, radiusMiles float64, limit int) ([]types.NearbyPlace, error) {
	f.record("Nearby")
	if f.err != nil {
		return nil, f.err
	}
	f.lastLat, f.lastLng, f.lastLimit = lat, lng, limit
	return []types.NearbyPlace{}, nil
}

func (f *fakePlaces) Upsert(ctx context.Context, place *models.Place) (*models.Place, error) {
	f.record("Upsert")
	if f.err != nil {
		return nil, f.err
	}
	if place.ID == "" {
		place.ID = "generated-id"
	}
	f.upserted = append(f.upserted, place)
	return place, nil
}

func (f *fakePlaces) Delete(ctx context.Context, id string) error {
	f.record("Delete")
	if f.err != nil {
		return f.err
	}
	for _, p := range f.places {
		if p.ID == id {
			f.deleted = append(f.deleted, id)
			return nil
		}
	}
	return types.ErrNotFound
}

func (f *fakePlaces) Dashboard(ctx context.Context) (*types.DashboardCounts, error) {
	f.record("Dashboard")
	if f.err != nil {
		return nil, f.err
	}
	return &types.DashboardCounts{Total: int64(len(f.places))}, nil
}

func (f *fakePlaces) ListAll(ctx context.Context, status models.PlaceStatus, limit, offset int) ([]models.Place, int64, error) {
	f.record("ListAll")
	if f.err != nil {
		return nil, 0, f.err
	}
	f.lastStatus, f.lastLimit, f.lastOffset = status, limit, offset
	if offset >= len(f.places) {
		return []models.Place{}, int64(len(f.places)), nil
	}
	end := offset + limit
	if end > len(f.places) {
		end = len(f.places)
	}
	return f.places[offset:end], int64(len(f.places)), nil
}

func (f *fakePlaces) AllPublished(ctx context.Context) ([]models.Place, error) {
	f.record("AllPublished")
	if f.err != nil {
		return nil, f.err
	}
	out := []models.Place{}
	for _, p := range f.places {
		if p.Published() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePlaces) Counties(ctx context.Context) ([]types.CountyCount, error) {
	f.record("Counties")
	if f.err != nil {
		return nil, f.err
	}
	return []types.CountyCount{{County: "Wayne", Places: 2}}, nil
}

func (f *fakePlaces) SlugTaken(ctx context.Context, slug string) (bool, error) {
	f.record("SlugTaken")
	if f.err != nil {
		return false, f.err
	}
	for _, p := range f.places {
		if p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func samplePlaces() []models.Place {
	rating := 4.6
	return []models.Place{
		{ID: "p1", Name: "Supino Pizzeria", Slug: "supino-pizzeria", City: "Detroit", County: "Wayne",
			Latitude: 42.3486, Longitude: -83.0405, PriceLevel: 2, Rating: &rating, IsFeatured: true, Status: models.StatusPublished},
		{ID: "p2", Name: "Zingerman's Deli", Slug: "zingermans-deli", City: "Ann Arbor", County: "Washtenaw",
			Latitude: 42.2847, Longitude: -83.7450, PriceLevel: 2, Status: models.StatusPublished},
		{ID: "p3", Name: "Hidden Draft", Slug: "hidden-draft", City: "Detroit", County: "Wayne",
			Latitude: 42.33, Longitude: -83.05, PriceLevel: 1, Status: models.StatusDraft},
	}
}

// memoryCache is a ContentCache that never expires.
type memoryCache[T any] struct {
	mu      sync.Mutex
	items   []T
	cleared int
}

func (m *memoryCache[T]) Get(ctx context.Context) ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items, nil
}

func (m *memoryCache[T]) Put(ctx context.Context, items []T, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = items
	return nil
}

func (m *memoryCache[T]) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = nil
	m.cleared++
	return nil
}

func (m *memoryCache[T]) Stats(ctx context.Context) (types.CacheStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return types.CacheStats{Backend: "memory", Valid: int64(len(m.items))}, nil
}

type fakeProductSource struct {
	products []types.Product
	err      error
}

func (s *fakeProductSource) Fetch(ctx context.Context) ([]types.Product, error) {
	return s.products, s.err
}

type fakeEpisodeSource struct {
	episodes []types.Episode
	err      error
}

func (s *fakeEpisodeSource) Fetch(ctx context.Context, limit int) ([]types.Episode, error) {
	return s.episodes, s.err
}

// envelope decodes StandardResponse with the payload left raw.
type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Meta       map[string]any  `json:"meta"`
	Pagination *PaginationMeta `json:"pagination"`
	Message    string          `json:"message"`
	Error      string          `json:"error"`
}

func perform(r http.Handler, method, target string, body []byte, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid JSON response %q: %v", w.Body.String(), err)
	}
	return env
}
