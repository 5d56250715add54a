package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tastemichigan/api-go/repository"
	"github.com/tastemichigan/api-go/utils"
)

// ValidationController backs the admin form's live slug check.
type ValidationController struct {
	Places repository.PlaceRepository
}

func NewValidationController(places repository.PlaceRepository) *ValidationController {
	return &ValidationController{Places: places}
}

// ValidateSlug accepts either ?slug= or ?name= (slugified) and reports whether
// the slug is already used by any place.
func (vc *ValidationController) ValidateSlug(c *gin.Context) {
	slug := strings.TrimSpace(c.Query("slug"))
	if slug == "" {
		slug = utils.Slugify(c.Query("name"))
	}
	if slug == "" {
		c.JSON(http.StatusBadRequest, StandardResponse{Success: false, Error: "slug or name is required"})
		return
	}

	exists, err := vc.Places.SlugTaken(c.Request.Context(), slug)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    gin.H{"slug": slug, "exists": exists},
	})
}
