package main

import (
	"log"
	"net/http"
	"os"

	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/config"
	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/logger"
	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/middleware"
	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/routes"
)

func main() {
	// Initialize structured logging to file
	logger.Setup()

	// Connect to the database
	config.InitDB()

	// Setup Gin router (request logging + recovery are attached there)
	r := routes.SetupRouter()

	// Wrap with CORS
	handler := middleware.EnableCORS(r)

	addr := "0.0.0.0:8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = "0.0.0.0:" + port
	}
	log.Println("🚀 Server running at " + addr)
	log.Fatal(http.ListenAndServe(addr, handler))
}
