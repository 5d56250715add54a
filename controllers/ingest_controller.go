package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/tastemichigan/api-go/repository"
	"github.com/tastemichigan/api-go/services"
	"github.com/tastemichigan/api-go/types"
)

// IngestController accepts single places from scrapers and partner scripts.
// Authentication happens in middleware.IngestKey.
type IngestController struct {
	Places   repository.PlaceRepository
	Snapshot *services.PlaceSnapshot
}

func NewIngestController(places repository.PlaceRepository, snapshot *services.PlaceSnapshot) *IngestController {
	return &IngestController{Places: places, Snapshot: snapshot}
}

func (ic *IngestController) IngestPlace(c *gin.Context) {
	var payload types.PlacePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}
	if err := payload.Validate(); err != nil {
		badRequest(c, err)
		return
	}

	place, err := ic.Places.Upsert(c.Request.Context(), payload.ToPlace())
	if err != nil {
		log.Ctx(c.Request.Context()).Error().Err(err).Str("name", payload.Name).Msg("failed to store ingested place")
		c.JSON(http.StatusInternalServerError, StandardResponse{Success: false, Error: "Failed to store place"})
		return
	}
	ic.Snapshot.Invalidate()

	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: place})
}
