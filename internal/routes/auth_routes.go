package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/controllers"
)

func AuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/signup", controllers.SignupEmployee)
		auth.POST("/login", controllers.LoginEmployee)
	}
}
