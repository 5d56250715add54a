package types

import "time"

// Product is a storefront product normalized for the merch pages.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	ImageURL    string  `json:"image_url"`
	Category    string  `json:"category"`
	InStock     bool    `json:"in_stock"`
	CheckoutURL string  `json:"checkout_url"`
}

// Episode is one video from the show's feed.
type Episode struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ThumbnailURL string    `json:"thumbnail_url"`
	VideoURL     string    `json:"video_url"`
	PublishedAt  time.Time `json:"published_at"`
}

type ContentType string

const (
	ContentProducts ContentType = "products"
	ContentEpisodes ContentType = "episodes"
)

// CacheStats summarizes one cache for operators.
type CacheStats struct {
	Type    ContentType `json:"type"`
	Backend string      `json:"backend"`
	Valid   int64       `json:"valid"`
	Expired int64       `json:"expired"`
	Oldest  *time.Time  `json:"oldest,omitempty"`
	Newest  *time.Time  `json:"newest,omitempty"`
}
