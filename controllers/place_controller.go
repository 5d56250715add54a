package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tastemichigan/api-go/models"
	"github.com/tastemichigan/api-go/repository"
	"github.com/tastemichigan/api-go/services"
	"github.com/tastemichigan/api-go/types"
)

type PlaceController struct {
	Places   repository.PlaceRepository
	Snapshot *services.PlaceSnapshot
}

func NewPlaceController(places repository.PlaceRepository, snapshot *services.PlaceSnapshot) *PlaceController {
	return &PlaceController{Places: places, Snapshot: snapshot}
}

// GetPlaces godoc
// @Summary List published places inside a map rectangle, or search them
// @Tags places
// @Produce json
// @Param minLng query number false "West edge"
// @Param minLat query number false "South edge"
// @Param maxLng query number false "East edge"
// @Param maxLat query number false "North edge"
// @Param q query string false "Free-text search over name, city, county and address"
// @Param county query []string false "County filter"
// @Param cuisine query []string false "Cuisine filter"
// @Param tag query []string false "Tag filter"
// @Success 200 {object} StandardResponse
// @Router /places [get]
func (pc *PlaceController) GetPlaces(c *gin.Context) {
	var query types.PlacesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	filters := query.Filters()

	var (
		places []models.Place
		err    error
	)
	if types.HasBoundsParams(c.Request.URL.Query()) {
		places, err = pc.Places.InBounds(ctx, query.BoundingBox, filters, types.ClampLimit(query.Limit, types.DefaultBoundsLimit))
	} else {
		places, err = pc.Places.Search(ctx, query.SearchTerm(), filters, types.ClampLimit(query.Limit, types.DefaultSearchLimit))
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    places,
		Meta:    gin.H{"count": len(places)},
	})
}

// GetNearbyPlaces godoc
// @Summary Published places within a radius, nearest first
// @Tags places
// @Produce json
// @Param lat query number true "Latitude"
// @Param lng query number true "Longitude"
// @Param radius query number false "Radius in miles (default 10)"
// @Param limit query integer false "Maximum results (default 20)"
// @Success 200 {object} StandardResponse
// @Router /places/nearby [get]
func (pc *PlaceController) GetNearbyPlaces(c *gin.Context) {
	var query types.NearbyQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}

	radius := query.Radius
	if radius == 0 {
		radius = types.DefaultNearbyRadiusMiles
	}

	places, err := pc.Places.Nearby(c.Request.Context(), *query.Latitude, *query.Longitude, radius, types.ClampLimit(query.Limit, types.DefaultNearbyLimit))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    places,
		Meta:    gin.H{"count": len(places), "radius_miles": radius},
	})
}

// GetPlace godoc
// @Summary A single published place by slug
// @Tags places
// @Produce json
// @Param slug path string true "Place slug"
// @Success 200 {object} StandardResponse
// @Failure 404 {object} StandardResponse
// @Router /places/{slug} [get]
func (pc *PlaceController) GetPlace(c *gin.Context) {
	place, err := pc.Places.BySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: place})
}

// GetMapPlaces serves the map view from the in-memory snapshot.
func (pc *PlaceController) GetMapPlaces(c *gin.Context) {
	var query types.MapQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}

	req := services.MapRequest{
		Filters: query.Filters(),
		Term:    query.SearchTerm(),
		Limit:   query.Limit,
	}
	if types.HasBoundsParams(c.Request.URL.Query()) {
		box := query.BoundingBox
		req.Bounds = &box
	}
	if query.NearLat != nil && query.NearLng != nil {
		req.Near = &types.Location{Latitude: *query.NearLat, Longitude: *query.NearLng}
	}

	places, err := pc.Snapshot.Query(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    places,
		Meta:    gin.H{"count": len(places)},
	})
}

// GetCounties lists counties with published places, busiest first.
func (pc *PlaceController) GetCounties(c *gin.Context) {
	counties, err := pc.Places.Counties(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: counties})
}
