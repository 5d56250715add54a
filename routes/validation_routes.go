package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/tastemichigan/api-go/controllers"
)

func SetupValidationRoutes(admin *gin.RouterGroup, validationController *controllers.ValidationController) {
	validation := admin.Group("/admin/validation")
	{
		validation.GET("/slug", validationController.ValidateSlug)
	}
}
