package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/tastemichigan/api-go/models"
	"github.com/tastemichigan/api-go/types"
	"gorm.io/gorm"
)

// EpisodeTableCache keeps the latest episode list in cached_episodes. A write
// replaces the whole list.
type EpisodeTableCache struct {
	db  *gorm.DB
	now clock
}

func NewEpisodeTableCache(db *gorm.DB) *EpisodeTableCache {
	return &EpisodeTableCache{db: db, now: utcNow}
}

func (c *EpisodeTableCache) Get(ctx context.Context) ([]types.Episode, error) {
	var rows []models.CachedEpisode
	err := c.db.WithContext(ctx).
		Where("cache_key = ? AND expires_at > ?", episodeCacheKey, c.now()).
		Order("position ASC").
		Find(&rows).Error
	if err != nil {
		return nil, &types.QueryError{Op: "read episode cache", Err: err}
	}

	episodes := make([]types.Episode, len(rows))
	for i, row := range rows {
		episodes[i] = types.Episode{
			ID:           row.VideoID,
			Title:        row.Title,
			Description:  row.Description,
			ThumbnailURL: row.ThumbnailURL,
			VideoURL:     row.VideoURL,
			PublishedAt:  row.PublishedAt,
		}
	}
	return episodes, nil
}

func (c *EpisodeTableCache) Put(ctx context.Context, episodes []types.Episode, ttl time.Duration) error {
	if len(episodes) == 0 {
		return nil
	}

	now := c.now()
	rows := make([]models.CachedEpisode, len(episodes))
	for i, e := range episodes {
		rows[i] = models.CachedEpisode{
			CacheKey:     episodeCacheKey,
			Position:     i,
			VideoID:      e.ID,
			Title:        e.Title,
			Description:  e.Description,
			ThumbnailURL: e.ThumbnailURL,
			VideoURL:     e.VideoURL,
			PublishedAt:  e.PublishedAt,
			CachedAt:     now,
			ExpiresAt:    now.Add(ttl),
		}
	}

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.CachedEpisode{}).Error; err != nil {
			return fmt.Errorf("failed to clear episodes: %w", err)
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return &types.QueryError{Op: "write episode cache", Err: err}
	}
	return nil
}

func (c *EpisodeTableCache) Clear(ctx context.Context) error {
	err := c.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.CachedEpisode{}).Error
	if err != nil {
		return &types.QueryError{Op: "clear episode cache", Err: err}
	}
	return nil
}

func (c *EpisodeTableCache) Stats(ctx context.Context) (types.CacheStats, error) {
	stats, err := tableStats(ctx, c.db, &models.CachedEpisode{}, c.now())
	stats.Type = types.ContentEpisodes
	if err != nil {
		return stats, &types.QueryError{Op: "episode cache stats", Err: err}
	}
	return stats, nil
}
