package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/controllers"
	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/middleware"
)

func TripRoutes(r *gin.Engine) {
	trips := r.Group("/trips")
	trips.Use(middleware.RequireAuth())
	{
		trips.GET("/:id", controllers.GetTrip)
		trips.GET("/:id/path", controllers.GetTripPath)
		trips.PUT("/:id/classification", controllers.SetTripClassification)
	}

	admin := r.Group("/trips")
	admin.Use(middleware.RequireAuthWithRole("supervisor"))
	{
		admin.PUT("/:id/match", controllers.MatchTripEndpointManually)
	}

	clusters := r.Group("/clusters")
	clusters.Use(middleware.RequireAuthWithRole("supervisor"))
	{
		clusters.PUT("/:id/match", controllers.MatchClusterManually)
	}
}
