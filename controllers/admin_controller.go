package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/tastemichigan/api-go/importer"
	"github.com/tastemichigan/api-go/models"
	"github.com/tastemichigan/api-go/repository"
	"github.com/tastemichigan/api-go/services"
	"github.com/tastemichigan/api-go/types"
	"github.com/tastemichigan/api-go/utils"
)

const maxImportBytes = 10 << 20

type AdminController struct {
	Places   repository.PlaceRepository
	Snapshot *services.PlaceSnapshot
	Importer *importer.Importer
}

func NewAdminController(places repository.PlaceRepository, snapshot *services.PlaceSnapshot, imp *importer.Importer) *AdminController {
	return &AdminController{Places: places, Snapshot: snapshot, Importer: imp}
}

type AdminPlacesQuery struct {
	Status   string `form:"status" binding:"omitempty,oneof=draft published archived"`
	Page     int    `form:"page,default=1" binding:"min=1"`
	PageSize int    `form:"pageSize,default=25" binding:"min=1,max=100"`
}

// ListPlaces godoc
// @Summary Every place regardless of status, newest first
// @Tags admin
// @Produce json
// @Param status query string false "draft, published or archived"
// @Param page query integer false "Page number (default: 1)"
// @Param pageSize query integer false "Items per page (default: 25, max: 100)"
// @Success 200 {object} StandardResponse
// @Router /admin/places [get]
func (ac *AdminController) ListPlaces(c *gin.Context) {
	var query AdminPlacesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}

	offset := (query.Page - 1) * query.PageSize
	places, total, err := ac.Places.ListAll(c.Request.Context(), models.PlaceStatus(query.Status), query.PageSize, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success:    true,
		Data:       places,
		Pagination: newPagination(query.Page, query.PageSize, total),
	})
}

// UpsertPlace creates or replaces a place keyed by id, else by slug.
func (ac *AdminController) UpsertPlace(c *gin.Context) {
	var payload types.PlacePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}
	if err := payload.Validate(); err != nil {
		badRequest(c, err)
		return
	}

	place, err := ac.Places.Upsert(c.Request.Context(), payload.ToPlace())
	if err != nil {
		respondError(c, err)
		return
	}
	ac.Snapshot.Invalidate()

	log.Ctx(c.Request.Context()).Info().
		Str("admin", adminName(c)).
		Str("place_id", place.ID).
		Str("slug", place.Slug).
		Msg("place saved")

	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: place, Message: "Place saved"})
}

func (ac *AdminController) DeletePlace(c *gin.Context) {
	id := c.Param("id")
	if err := ac.Places.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	ac.Snapshot.Invalidate()

	log.Ctx(c.Request.Context()).Info().Str("admin", adminName(c)).Str("place_id", id).Msg("place deleted")
	c.JSON(http.StatusOK, StandardResponse{Success: true, Message: "Place deleted"})
}

func (ac *AdminController) Dashboard(c *gin.Context) {
	counts, err := ac.Places.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: counts})
}

// ImportCSV godoc
// @Summary Upsert places from an uploaded CSV file
// @Tags admin
// @Accept multipart/form-data
// @Param file formData file true "CSV export with a header row"
// @Success 200 {object} StandardResponse
// @Router /admin/places/import [post]
func (ac *AdminController) ImportCSV(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)

	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, err)
		return
	}
	f, err := header.Open()
	if err != nil {
		badRequest(c, err)
		return
	}
	defer f.Close()

	report, err := ac.Importer.Import(c.Request.Context(), f)
	if err != nil {
		badRequest(c, err)
		return
	}
	if report.Succeeded > 0 {
		ac.Snapshot.Invalidate()
	}

	log.Ctx(c.Request.Context()).Info().
		Str("admin", adminName(c)).
		Str("file", header.Filename).
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed).
		Msg("CSV import completed")

	c.JSON(http.StatusOK, StandardResponse{Success: report.Failed == 0, Data: report})
}

func adminName(c *gin.Context) string {
	if admin := utils.GetAdmin(c); admin != nil {
		return admin.Username
	}
	return ""
}
