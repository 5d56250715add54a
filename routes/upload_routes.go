package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/tastemichigan/api-go/controllers"
)

func SetupUploadRoutes(admin *gin.RouterGroup, uploadController *controllers.UploadController) {
	upload := admin.Group("/admin/uploads/hero-image")
	{
		// Presigned PUT for the browser
		upload.POST("", uploadController.GetHeroImageURL)

		upload.POST("/confirm", uploadController.ConfirmHeroImage)

		// Keys contain slashes
		upload.DELETE("/*key", uploadController.DeleteHeroImage)
	}
}
