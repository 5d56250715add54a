package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/tastemichigan/api-go/controllers"
)

func SetupAdminRoutes(admin *gin.RouterGroup, adminController *controllers.AdminController) {
	places := admin.Group("/admin/places")
	{
		places.GET("", adminController.ListPlaces)
		places.POST("", adminController.UpsertPlace)
		places.POST("/import", adminController.ImportCSV)
		places.DELETE("/:id", adminController.DeletePlace)
	}
	admin.GET("/admin/dashboard", adminController.Dashboard)
}
