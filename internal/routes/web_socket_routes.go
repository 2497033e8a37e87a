package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/controllers"
)

func WebSocketRoutes(r *gin.Engine) {
	// Token is validated inside the handler (query parameter) because
	// browser WebSocket clients cannot set an Authorization header.
	r.GET("/ws/live", controllers.HandleLiveWebSocket)
}
