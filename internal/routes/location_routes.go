package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/controllers"
	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/middleware"
)

func LocationRoutes(r *gin.Engine) {
	locations := r.Group("/locations")
	locations.Use(middleware.RequireAuth())
	{
		locations.GET("/", controllers.ListLocations)
		locations.GET("/:id", controllers.GetLocation)
	}

	admin := r.Group("/locations")
	admin.Use(middleware.RequireAuthWithRole("supervisor"))
	{
		admin.POST("/", controllers.CreateLocation)
		admin.PUT("/:id", controllers.UpdateLocation)
		admin.DELETE("/:id", controllers.DeactivateLocation)
	}
}
