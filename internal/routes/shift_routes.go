package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/controllers"
	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/middleware"
)

func ShiftRoutes(r *gin.Engine) {
	shifts := r.Group("/shifts")
	shifts.Use(middleware.RequireAuth())
	{
		shifts.POST("/clock-in", controllers.ClockIn)
		shifts.POST("/clock-out", controllers.ClockOut)
		shifts.POST("/:id/fixes", controllers.IngestFixes)
		shifts.GET("/:id/fixes", controllers.ListFixes)
		shifts.GET("/:id/clusters", controllers.ListShiftClusters)
		shifts.GET("/:id/trips", controllers.ListShiftTrips)
	}

	admin := r.Group("/shifts")
	admin.Use(middleware.RequireAuthWithRole("supervisor"))
	{
		admin.POST("/:id/detect", controllers.DetectShift)
		admin.POST("/sweep", controllers.SweepActiveShifts)
	}
}
