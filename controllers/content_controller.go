package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/tastemichigan/api-go/models"
	"github.com/tastemichigan/api-go/repository"
	"github.com/tastemichigan/api-go/services"
	"github.com/tastemichigan/api-go/types"
	"golang.org/x/sync/errgroup"
)

const (
	homeFeaturedLimit = 8
	homeEpisodeLimit  = 6
	homeProductLimit  = 8
)

type ContentController struct {
	Products *services.ProductService
	Episodes *services.EpisodeService
	Caches   services.ContentCaches
	Places   repository.PlaceRepository
}

func NewContentController(products *services.ProductService, episodes *services.EpisodeService, caches services.ContentCaches, places repository.PlaceRepository) *ContentController {
	return &ContentController{Products: products, Episodes: episodes, Caches: caches, Places: places}
}

type ProductsQuery struct {
	Category string `form:"category"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=250"`
	Refresh  bool   `form:"refresh"`
}

type EpisodesQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=50"`
}

// GetProducts godoc
// @Summary Storefront products, cached for an hour
// @Tags content
// @Produce json
// @Param category query string false "Category (case-insensitive)"
// @Param limit query integer false "Maximum products"
// @Param refresh query boolean false "Bypass and clear the cache"
// @Success 200 {object} StandardResponse
// @Router /products [get]
func (cc *ContentController) GetProducts(c *gin.Context) {
	var query ProductsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}

	products, err := cc.Products.List(c.Request.Context(), services.ProductQuery{
		Category: query.Category,
		Limit:    query.Limit,
		Refresh:  query.Refresh,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    products,
		Meta:    gin.H{"count": len(products)},
	})
}

// GetEpisodes godoc
// @Summary Latest show episodes, fetched live, newest first
// @Tags content
// @Produce json
// @Param limit query integer false "Maximum episodes (default 12)"
// @Success 200 {object} StandardResponse
// @Router /episodes [get]
func (cc *ContentController) GetEpisodes(c *gin.Context) {
	var query EpisodesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}

	episodes, err := cc.Episodes.Live(c.Request.Context(), query.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    episodes,
		Meta:    gin.H{"count": len(episodes)},
	})
}

// homeSection carries one block of the home page; a failed block reports its error
// without failing the others.
type homeSection struct {
	Data  interface{} `json:"data"`
	Error string      `json:"error,omitempty"`
}

// GetHome assembles featured places, recent episodes and products concurrently.
func (cc *ContentController) GetHome(c *gin.Context) {
	ctx := c.Request.Context()

	var featured, episodes, products homeSection
	var g errgroup.Group

	g.Go(func() error {
		filters := types.DefaultMapFilters()
		filters.FeaturedOnly = true
		places, err := cc.Places.Search(ctx, "", filters, homeFeaturedLimit)
		featured = section(ctx, "featured", places, err, []models.Place{})
		return nil
	})
	g.Go(func() error {
		eps, err := cc.Episodes.Latest(ctx, homeEpisodeLimit)
		episodes = section(ctx, "episodes", eps, err, []types.Episode{})
		return nil
	})
	g.Go(func() error {
		prods, err := cc.Products.List(ctx, services.ProductQuery{Limit: homeProductLimit})
		products = section(ctx, "products", prods, err, []types.Product{})
		return nil
	})
	_ = g.Wait()

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data: gin.H{
			"featured": featured,
			"episodes": episodes,
			"products": products,
		},
	})
}

func section[T any](ctx context.Context, name string, data []T, err error, empty []T) homeSection {
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("section", name).Msg("home section unavailable")
		return homeSection{Data: empty, Error: publicMessage(statusFor(err), err)}
	}
	return homeSection{Data: data}
}

// ClearCache godoc
// @Summary Purge a content cache
// @Tags cache
// @Param type query string false "products, episodes or all (default)"
// @Success 200 {object} StandardResponse
// @Router /cache/clear [post]
func (cc *ContentController) ClearCache(c *gin.Context) {
	which := c.DefaultQuery("type", "all")
	if err := cc.Caches.Clear(c.Request.Context(), which); err != nil {
		respondError(c, err)
		return
	}

	log.Ctx(c.Request.Context()).Info().Str("type", which).Msg("content cache cleared")
	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Message: "Cache cleared",
		Data:    gin.H{"type": which},
	})
}

func (cc *ContentController) GetCacheStats(c *gin.Context) {
	stats, err := cc.Caches.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: stats})
}
