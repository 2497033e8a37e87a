package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"gorm.io/gorm"

	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/config"
	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/matching"
	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/models"
)

// locationInput accepts the center either as plain latitude/longitude fields
// or as a GeoJSON Point (lon, lat order), whichever the client prefers.
type locationInput struct {
	Name      string          `json:"name" binding:"required"`
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
	Center    json.RawMessage `json:"center"`
	RadiusM   float64         `json:"radius_m" binding:"required,gt=0"`
	Active    *bool           `json:"active"`
}

func (in *locationInput) resolveCenter() (lat, lng float64, err error) {
	if len(in.Center) == 0 {
		return in.Latitude, in.Longitude, nil
	}
	var g geom.T
	if err := geojson.Unmarshal(in.Center, &g); err != nil {
		return 0, 0, errors.New("center must be a GeoJSON Point")
	}
	pt, ok := g.(*geom.Point)
	if !ok {
		return 0, 0, errors.New("center must be a GeoJSON Point")
	}
	coords := pt.Coords()
	return coords.Y(), coords.X(), nil
}

// CreateLocation registers a new geofence and immediately rematches stored
// clusters and trip endpoints against it.
func CreateLocation(c *gin.Context) {
	var input locationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	lat, lng, err := input.resolveCenter()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	loc := models.Location{
		Name:      input.Name,
		Latitude:  lat,
		Longitude: lng,
		RadiusM:   input.RadiusM,
		Active:    true,
	}
	if input.Active != nil {
		loc.Active = *input.Active
	}
	if err := config.DB.Create(&loc).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create location: " + err.Error()})
		return
	}

	stats, err := matching.NewService(config.DB).LocationCreated(loc)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"location": loc, "rematch_error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"location": loc, "rematch": stats})
}

// UpdateLocation edits a geofence (center, radius, name, active flag) and
// runs the two-phase rematch.
func UpdateLocation(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid location ID format."})
		return
	}

	var loc models.Location
	if err := config.DB.First(&loc, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Location not found."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error: " + err.Error()})
		return
	}

	var input locationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	lat, lng, err := input.resolveCenter()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	loc.Name = input.Name
	loc.Latitude = lat
	loc.Longitude = lng
	loc.RadiusM = input.RadiusM
	if input.Active != nil {
		loc.Active = *input.Active
	}
	if err := config.DB.Save(&loc).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update location: " + err.Error()})
		return
	}

	stats, err := matching.NewService(config.DB).LocationUpdated(loc)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"location": loc, "rematch_error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"location": loc, "rematch": stats})
}

// DeactivateLocation soft-disables a geofence. Deactivation is treated as an
// update, so automatic matches against it are released.
func DeactivateLocation(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid location ID format."})
		return
	}

	var loc models.Location
	if err := config.DB.First(&loc, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Location not found."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error: " + err.Error()})
		return
	}

	loc.Active = false
	if err := config.DB.Save(&loc).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deactivate location: " + err.Error()})
		return
	}

	stats, err := matching.NewService(config.DB).LocationUpdated(loc)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"location": loc, "rematch_error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"location": loc, "rematch": stats})
}

// GetLocation returns one geofence by ID.
func GetLocation(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid location ID format."})
		return
	}

	var loc models.Location
	if err := config.DB.First(&loc, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Location not found."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"location": loc})
}

// ListLocations returns all geofences, active ones first.
func ListLocations(c *gin.Context) {
	var locations []models.Location
	if err := config.DB.Order("active desc, name asc").Find(&locations).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing locations: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": locations})
}
