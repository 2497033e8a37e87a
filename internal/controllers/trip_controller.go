package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"gorm.io/gorm"

	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/config"
	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/models"
)

// GetTrip returns one trip with its point links.
func GetTrip(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid trip ID format."})
		return
	}

	var trip models.Trip
	if err := config.DB.Preload("Points").First(&trip, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Trip not found."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trip": trip})
}

// GetTripPath returns the trip's raw geometry as a GeoJSON LineString,
// rebuilt from the fixes linked at detection time.
func GetTripPath(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid trip ID format."})
		return
	}

	var trip models.Trip
	if err := config.DB.First(&trip, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Trip not found."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error: " + err.Error()})
		return
	}

	var links []models.TripPoint
	err = config.DB.Where("trip_id = ?", trip.ID).Order("seq asc").Find(&links).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading trip points: " + err.Error()})
		return
	}

	fixIDs := make([]uint, len(links))
	for i, l := range links {
		fixIDs[i] = l.GpsFixID
	}
	byID := make(map[uint]models.GpsFix, len(fixIDs))
	if len(fixIDs) > 0 {
		var fixes []models.GpsFix
		if err := config.DB.Where("id IN ?", fixIDs).Find(&fixes).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading fixes: " + err.Error()})
			return
		}
		for _, f := range fixes {
			byID[f.ID] = f
		}
	}

	coords := make([]geom.Coord, 0, len(links)+2)
	coords = append(coords, geom.Coord{trip.StartLongitude, trip.StartLatitude})
	for _, l := range links {
		if f, ok := byID[l.GpsFixID]; ok {
			coords = append(coords, geom.Coord{f.Longitude, f.Latitude})
		}
	}
	coords = append(coords, geom.Coord{trip.EndLongitude, trip.EndLatitude})

	line := geom.NewLineString(geom.XY)
	if _, err := line.SetCoords(coords); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error building path geometry: " + err.Error()})
		return
	}
	encoded, err := geojson.Marshal(line)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error encoding path: " + err.Error()})
		return
	}

	c.Data(http.StatusOK, "application/geo+json", encoded)
}

type manualMatchInput struct {
	LocationID uint `json:"location_id" binding:"required"`
}

// MatchClusterManually pins a cluster to a location. Manual assignments
// survive every automatic rematch pass.
func MatchClusterManually(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cluster ID format."})
		return
	}

	var input manualMatchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var cluster models.StationaryCluster
	if err := config.DB.First(&cluster, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cluster not found."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error: " + err.Error()})
		return
	}
	var loc models.Location
	if err := config.DB.First(&loc, input.LocationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Location not found."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error: " + err.Error()})
		return
	}

	cluster.MatchedLocationID = &loc.ID
	cluster.MatchMethod = models.MatchMethodManual
	if err := config.DB.Save(&cluster).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save match: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cluster": cluster})
}

type manualEndpointInput struct {
	LocationID uint   `json:"location_id" binding:"required"`
	Endpoint   string `json:"endpoint" binding:"required,oneof=start end"`
}

// MatchTripEndpointManually pins one endpoint of a trip to a location.
func MatchTripEndpointManually(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid trip ID format."})
		return
	}

	var input manualEndpointInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var trip models.Trip
	if err := config.DB.First(&trip, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Trip not found."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error: " + err.Error()})
		return
	}
	var loc models.Location
	if err := config.DB.First(&loc, input.LocationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Location not found."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error: " + err.Error()})
		return
	}

	if input.Endpoint == "start" {
		trip.StartLocationID = &loc.ID
		trip.StartMatchMethod = models.MatchMethodManual
	} else {
		trip.EndLocationID = &loc.ID
		trip.EndMatchMethod = models.MatchMethodManual
	}
	if err := config.DB.Save(&trip).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save match: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trip": trip})
}

type classificationInput struct {
	Classification string `json:"classification" binding:"required,oneof=business personal"`
}

// SetTripClassification flips a trip between business and personal.
func SetTripClassification(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid trip ID format."})
		return
	}

	var input classificationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := config.DB.Model(&models.Trip{}).Where("id = ?", uint(id)).
		Update("classification", input.Classification)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update trip: " + res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Trip not found."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}
