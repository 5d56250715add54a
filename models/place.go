package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PlaceStatus string

const (
	StatusDraft     PlaceStatus = "draft"
	StatusPublished PlaceStatus = "published"
	StatusArchived  PlaceStatus = "archived"
)

func (s PlaceStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

const DefaultState = "MI"

// DayHours is one day's opening window, e.g. {"open":"11:00","close":"21:00"}.
type DayHours struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// WeeklyHours maps a lowercase day name to its hours. Missing days are unknown.
type WeeklyHours map[string]DayHours

type Place struct {
	ID           string                          `json:"id" gorm:"type:uuid;primaryKey"`
	Name         string                          `json:"name" gorm:"not null"`
	Slug         string                          `json:"slug" gorm:"not null;uniqueIndex"`
	Address      string                          `json:"address"`
	City         string                          `json:"city" gorm:"index"`
	County       string                          `json:"county" gorm:"index"`
	State        string                          `json:"state" gorm:"not null;default:MI"`
	Zip          string                          `json:"zip"`
	Latitude     float64                         `json:"latitude" gorm:"not null;index:idx_places_lat_lng"`
	Longitude    float64                         `json:"longitude" gorm:"not null;index:idx_places_lat_lng"`
	Cuisines     pq.StringArray                  `json:"cuisines" gorm:"type:text[]"`
	Tags         pq.StringArray                  `json:"tags" gorm:"type:text[]"`
	PriceLevel   int                             `json:"price_level" gorm:"not null;default:1;check:price_level between 1 and 4"`
	Rating       *float64                        `json:"rating"`
	Website      string                          `json:"website"`
	Phone        string                          `json:"phone"`
	InstagramURL string                          `json:"ig_url" gorm:"column:ig_url"`
	Hours        datatypes.JSONType[WeeklyHours] `json:"hours"`
	HeroImageURL string                          `json:"hero_image_url"`
	IsFeatured   bool                            `json:"is_featured" gorm:"not null;default:false;index"`
	IsVerified   bool                            `json:"is_verified" gorm:"not null;default:false"`
	Status       PlaceStatus                     `json:"status" gorm:"type:varchar(16);not null;default:published;index"`
	CreatedAt    time.Time                       `json:"created_at"`
	UpdatedAt    time.Time                       `json:"updated_at"`
}

func (p *Place) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// Published reports whether the place is visible to public queries.
func (p *Place) Published() bool {
	return p.Status == StatusPublished
}
