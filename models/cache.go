package models

import "time"

// CachedProduct is one normalized storefront product held until ExpiresAt.
type CachedProduct struct {
	ProductID   string    `gorm:"primaryKey;size:128"`
	CacheKey    string    `gorm:"size:64;not null;index"`
	Position    int       `gorm:"not null;default:0"`
	Name        string    `gorm:"not null"`
	Description string    `gorm:"type:text"`
	Price       float64   `gorm:"not null;default:0"`
	Currency    string    `gorm:"size:8"`
	ImageURL    string
	Category    string    `gorm:"size:128"`
	InStock     bool      `gorm:"not null"`
	CheckoutURL string
	CachedAt    time.Time `gorm:"not null"`
	ExpiresAt   time.Time `gorm:"not null;index"`
}

func (CachedProduct) TableName() string {
	return "cached_products"
}

// CachedEpisode is one feed episode held until ExpiresAt.
type CachedEpisode struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	CacheKey     string    `gorm:"size:64;not null;index"`
	Position     int       `gorm:"not null;default:0"`
	VideoID      string    `gorm:"size:64;not null"`
	Title        string    `gorm:"not null"`
	Description  string    `gorm:"type:text"`
	ThumbnailURL string
	VideoURL     string
	PublishedAt  time.Time
	CachedAt     time.Time `gorm:"not null"`
	ExpiresAt    time.Time `gorm:"not null;index"`
}

func (CachedEpisode) TableName() string {
	return "cached_episodes"
}
