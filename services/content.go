package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tastemichigan/api-go/metrics"
	"github.com/tastemichigan/api-go/repository"
	"github.com/tastemichigan/api-go/types"
)

type ProductSource interface {
	Fetch(ctx context.Context) ([]types.Product, error)
}

type EpisodeSource interface {
	Fetch(ctx context.Context, limit int) ([]types.Episode, error)
}

// ProductQuery mirrors the product endpoint parameters.
type ProductQuery struct {
	Category string
	Limit    int
	Refresh  bool
}

// ProductService serves products from the cache and falls through to the
// storefront on a miss, queueing the cache write in the background.
type ProductService struct {
	source    ProductSource
	cache     repository.ContentCache[types.Product]
	refresher *CacheRefresher
	ttl       time.Duration
}

func NewProductService(source ProductSource, cache repository.ContentCache[types.Product], refresher *CacheRefresher, ttl time.Duration) *ProductService {
	return &ProductService{source: source, cache: cache, refresher: refresher, ttl: ttl}
}

func (s *ProductService) List(ctx context.Context, q ProductQuery) ([]types.Product, error) {
	products, err := s.load(ctx, q.Refresh)
	if err != nil {
		return nil, err
	}
	return filterProducts(products, q.Category, q.Limit), nil
}

func (s *ProductService) load(ctx context.Context, refresh bool) ([]types.Product, error) {
	if refresh {
		if err := s.cache.Clear(ctx); err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("failed to clear product cache before refresh")
		}
	} else {
		cached, err := s.cache.Get(ctx)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("product cache read failed, fetching live")
		} else if len(cached) > 0 {
			metrics.CacheHits.WithLabelValues(string(types.ContentProducts)).Inc()
			return cached, nil
		}
	}
	metrics.CacheMisses.WithLabelValues(string(types.ContentProducts)).Inc()

	products, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if len(products) > 0 {
		batch := products
		s.refresher.Enqueue(RefreshJob{
			Type: types.ContentProducts,
			Run: func(ctx context.Context) error {
				return s.cache.Put(ctx, batch, s.ttl)
			},
		})
	}
	return products, nil
}

// filterProducts applies the case-insensitive category filter and the limit.
func filterProducts(products []types.Product, category string, limit int) []types.Product {
	category = strings.TrimSpace(category)
	out := products
	if category != "" && !strings.EqualFold(category, "all") {
		out = make([]types.Product, 0, len(products))
		for _, p := range products {
			if strings.EqualFold(p.Category, category) {
				out = append(out, p)
			}
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// EpisodeService reads the feed live for the episodes endpoint and through
// the cache for everything else.
type EpisodeService struct {
	source    EpisodeSource
	cache     repository.ContentCache[types.Episode]
	refresher *CacheRefresher
	ttl       time.Duration
}

func NewEpisodeService(source EpisodeSource, cache repository.ContentCache[types.Episode], refresher *CacheRefresher, ttl time.Duration) *EpisodeService {
	return &EpisodeService{source: source, cache: cache, refresher: refresher, ttl: ttl}
}

// Live always hits the feed and refreshes the cache with the full list.
func (s *EpisodeService) Live(ctx context.Context, limit int) ([]types.Episode, error) {
	episodes, err := s.source.Fetch(ctx, MaxEpisodeLimit)
	if err != nil {
		return nil, err
	}
	batch := episodes
	s.refresher.Enqueue(RefreshJob{
		Type: types.ContentEpisodes,
		Run: func(ctx context.Context) error {
			return s.cache.Put(ctx, batch, s.ttl)
		},
	})
	return limitEpisodes(episodes, limit), nil
}

// Latest serves cached episodes while they are fresh.
func (s *EpisodeService) Latest(ctx context.Context, limit int) ([]types.Episode, error) {
	cached, err := s.cache.Get(ctx)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("episode cache read failed, fetching live")
	} else if len(cached) > 0 {
		metrics.CacheHits.WithLabelValues(string(types.ContentEpisodes)).Inc()
		return limitEpisodes(cached, limit), nil
	}
	metrics.CacheMisses.WithLabelValues(string(types.ContentEpisodes)).Inc()
	return s.Live(ctx, limit)
}

func limitEpisodes(episodes []types.Episode, limit int) []types.Episode {
	if limit <= 0 {
		limit = DefaultEpisodeLimit
	}
	if limit > MaxEpisodeLimit {
		limit = MaxEpisodeLimit
	}
	if len(episodes) > limit {
		return episodes[:limit]
	}
	return episodes
}

// ContentCaches groups both caches for the cache admin endpoints.
type ContentCaches struct {
	Products repository.ContentCache[types.Product]
	Episodes repository.ContentCache[types.Episode]
}

// Clear purges the named cache, or both for "all".
func (c ContentCaches) Clear(ctx context.Context, which string) error {
	switch which {
	case string(types.ContentProducts):
		return c.Products.Clear(ctx)
	case string(types.ContentEpisodes):
		return c.Episodes.Clear(ctx)
	case "all", "":
		if err := c.Products.Clear(ctx); err != nil {
			return err
		}
		return c.Episodes.Clear(ctx)
	}
	return &types.ValidationError{Field: "type", Message: "must be products, episodes or all"}
}

func (c ContentCaches) Stats(ctx context.Context) ([]types.CacheStats, error) {
	products, err := c.Products.Stats(ctx)
	if err != nil {
		return nil, err
	}
	episodes, err := c.Episodes.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return []types.CacheStats{products, episodes}, nil
}
