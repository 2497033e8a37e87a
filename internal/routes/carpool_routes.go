package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/controllers"
	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/middleware"
)

func CarpoolRoutes(r *gin.Engine) {
	carpools := r.Group("/carpools")
	carpools.Use(middleware.RequireAuthWithRole("supervisor"))
	{
		carpools.POST("/run", controllers.RunCarpoolDetection)
		carpools.GET("/", controllers.ListCarpoolGroups)
	}

	periods := r.Group("/vehicle-periods")
	periods.Use(middleware.RequireAuthWithRole("supervisor"))
	{
		periods.POST("/", controllers.CreateVehiclePeriod)
		periods.DELETE("/:id", controllers.EndVehiclePeriod)
		periods.GET("/", controllers.ListVehiclePeriods)
	}
}
