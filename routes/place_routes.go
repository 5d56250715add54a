package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/tastemichigan/api-go/controllers"
)

func SetupPlaceRoutes(public *gin.RouterGroup, placeController *controllers.PlaceController) {
	places := public.Group("/places")
	{
		places.GET("", placeController.GetPlaces)
		places.GET("/nearby", placeController.GetNearbyPlaces)
		places.GET("/map", placeController.GetMapPlaces)
		places.GET("/counties", placeController.GetCounties)
		places.GET("/:slug", placeController.GetPlace)
	}
}
