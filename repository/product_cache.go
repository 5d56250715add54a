package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/tastemichigan/api-go/models"
	"github.com/tastemichigan/api-go/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductTableCache keeps products in the cached_products table. A write
// drops expired rows and upserts the fresh batch by product id.
type ProductTableCache struct {
	db  *gorm.DB
	now clock
}

func NewProductTableCache(db *gorm.DB) *ProductTableCache {
	return &ProductTableCache{db: db, now: utcNow}
}

func (c *ProductTableCache) Get(ctx context.Context) ([]types.Product, error) {
	var rows []models.CachedProduct
	err := c.db.WithContext(ctx).
		Where("expires_at > ?", c.now()).
		Order("position ASC").
		Find(&rows).Error
	if err != nil {
		return nil, &types.QueryError{Op: "read product cache", Err: err}
	}

	products := make([]types.Product, len(rows))
	for i, row := range rows {
		products[i] = types.Product{
			ID:          row.ProductID,
			Name:        row.Name,
			Description: row.Description,
			Price:       row.Price,
			Currency:    row.Currency,
			ImageURL:    row.ImageURL,
			Category:    row.Category,
			InStock:     row.InStock,
			CheckoutURL: row.CheckoutURL,
		}
	}
	return products, nil
}

func (c *ProductTableCache) Put(ctx context.Context, products []types.Product, ttl time.Duration) error {
	if len(products) == 0 {
		return nil
	}

	now := c.now()
	// A repeated id keeps its first position and its last value. Postgres
	// rejects an upsert batch that touches the same row twice.
	rows := make([]models.CachedProduct, 0, len(products))
	slots := make(map[string]int, len(products))
	for _, p := range products {
		slot, seen := slots[p.ID]
		if !seen {
			slot = len(rows)
			slots[p.ID] = slot
			rows = append(rows, models.CachedProduct{})
		}
		rows[slot] = models.CachedProduct{
			ProductID:   p.ID,
			CacheKey:    productCacheKey,
			Position:    slot,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Currency:    p.Currency,
			ImageURL:    p.ImageURL,
			Category:    p.Category,
			InStock:     p.InStock,
			CheckoutURL: p.CheckoutURL,
			CachedAt:    now,
			ExpiresAt:   now.Add(ttl),
		}
	}

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("expires_at <= ?", now).Delete(&models.CachedProduct{}).Error; err != nil {
			return fmt.Errorf("failed to drop expired products: %w", err)
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}},
			UpdateAll: true,
		}).Create(&rows).Error
	})
	if err != nil {
		return &types.QueryError{Op: "write product cache", Err: err}
	}
	return nil
}

func (c *ProductTableCache) Clear(ctx context.Context) error {
	err := c.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.CachedProduct{}).Error
	if err != nil {
		return &types.QueryError{Op: "clear product cache", Err: err}
	}
	return nil
}

func (c *ProductTableCache) Stats(ctx context.Context) (types.CacheStats, error) {
	stats, err := tableStats(ctx, c.db, &models.CachedProduct{}, c.now())
	stats.Type = types.ContentProducts
	if err != nil {
		return stats, &types.QueryError{Op: "product cache stats", Err: err}
	}
	return stats, nil
}

// tableStats counts valid and expired rows and finds the cached_at range.
func tableStats(ctx context.Context, db *gorm.DB, model interface{}, now time.Time) (types.CacheStats, error) {
	stats := types.CacheStats{Backend: "postgres"}
	db = db.WithContext(ctx)

	if err := db.Model(model).Where("expires_at > ?", now).Count(&stats.Valid).Error; err != nil {
		return stats, err
	}
	if err := db.Model(model).Where("expires_at <= ?", now).Count(&stats.Expired).Error; err != nil {
		return stats, err
	}
	if stats.Valid+stats.Expired == 0 {
		return stats, nil
	}

	var oldest, newest []time.Time
	if err := db.Model(model).Order("cached_at ASC").Limit(1).Pluck("cached_at", &oldest).Error; err != nil {
		return stats, err
	}
	if err := db.Model(model).Order("cached_at DESC").Limit(1).Pluck("cached_at", &newest).Error; err != nil {
		return stats, err
	}
	if len(oldest) > 0 {
		stats.Oldest = &oldest[0]
	}
	if len(newest) > 0 {
		stats.Newest = &newest[0]
	}
	return stats, nil
}
