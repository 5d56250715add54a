package types

import (
	"strings"

	"github.com/tastemichigan/api-go/models"
	"github.com/tastemichigan/api-go/utils"
)

// PlacePayload is the JSON body accepted by the ingestion and admin upsert endpoints.
type PlacePayload struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Slug         string             `json:"slug"`
	Address      string             `json:"address"`
	City         string             `json:"city"`
	County       string             `json:"county"`
	State        string             `json:"state"`
	Zip          string             `json:"zip"`
	Location     *Location          `json:"location"`
	Cuisines     []string           `json:"cuisines"`
	Tags         []string           `json:"tags"`
	PriceLevel   int                `json:"price_level"`
	Rating       *float64           `json:"rating"`
	Website      string             `json:"website"`
	Phone        string             `json:"phone"`
	InstagramURL string             `json:"ig_url"`
	Hours        models.WeeklyHours `json:"hours"`
	HeroImageURL string             `json:"hero_image_url"`
	IsFeatured   bool               `json:"is_featured"`
	IsVerified   bool               `json:"is_verified"`
	Status       string             `json:"status"`
}

// Validate checks the fields every stored place needs.
func (p PlacePayload) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if p.Location == nil {
		return &ValidationError{Field: "location", Message: "is required"}
	}
	if p.Status != "" && !models.PlaceStatus(p.Status).Valid() {
		return &ValidationError{Field: "status", Message: "must be draft, published or archived"}
	}
	if p.Rating != nil && (*p.Rating < 0 || *p.Rating > 5) {
		return &ValidationError{Field: "rating", Message: "must be between 0 and 5"}
	}
	return nil
}

// ToPlace applies defaults: state MI, status published, slug from name, price clamped.
func (p PlacePayload) ToPlace() *models.Place {
	place := &models.Place{
		ID:           strings.TrimSpace(p.ID),
		Name:         strings.TrimSpace(p.Name),
		Slug:         strings.TrimSpace(p.Slug),
		Address:      strings.TrimSpace(p.Address),
		City:         strings.TrimSpace(p.City),
		County:       strings.TrimSpace(p.County),
		State:        strings.TrimSpace(p.State),
		Zip:          strings.TrimSpace(p.Zip),
		Cuisines:     cleanList(p.Cuisines),
		Tags:         cleanList(p.Tags),
		PriceLevel:   utils.ClampPriceLevel(p.PriceLevel),
		Rating:       p.Rating,
		Website:      strings.TrimSpace(p.Website),
		Phone:        strings.TrimSpace(p.Phone),
		InstagramURL: strings.TrimSpace(p.InstagramURL),
		HeroImageURL: strings.TrimSpace(p.HeroImageURL),
		IsFeatured:   p.IsFeatured,
		IsVerified:   p.IsVerified,
		Status:       models.PlaceStatus(p.Status),
	}
	if p.Location != nil {
		place.Latitude = p.Location.Latitude
		place.Longitude = p.Location.Longitude
	}
	if len(p.Hours) > 0 {
		place.Hours = datatypesHours(p.Hours)
	}
	ApplyPlaceDefaults(place)
	return place
}

// ApplyPlaceDefaults fills the defaults shared by every write path.
func ApplyPlaceDefaults(place *models.Place) {
	if place.Slug == "" {
		place.Slug = utils.Slugify(place.Name)
	}
	if place.State == "" {
		place.State = models.DefaultState
	}
	if place.Status == "" {
		place.Status = models.StatusPublished
	}
	place.PriceLevel = utils.ClampPriceLevel(place.PriceLevel)
	if place.Rating != nil {
		r := *place.Rating
		if r < 0 {
			r = 0
		} else if r > 5 {
			r = 5
		}
		place.Rating = &r
	}
}
