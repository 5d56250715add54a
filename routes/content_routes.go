package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/tastemichigan/api-go/controllers"
)

func SetupContentRoutes(public *gin.RouterGroup, contentController *controllers.ContentController) {
	public.GET("/products", contentController.GetProducts)
	public.GET("/episodes", contentController.GetEpisodes)
}

func SetupCacheRoutes(admin *gin.RouterGroup, contentController *controllers.ContentController) {
	cache := admin.Group("/cache")
	{
		cache.GET("", contentController.GetCacheStats)
		cache.POST("/clear", contentController.ClearCache)
	}
}
