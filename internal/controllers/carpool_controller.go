package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/carpool"
	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/config"
	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/models"
)

func parseDateParam(c *gin.Context) (time.Time, bool) {
	raw := c.Query("date")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date query parameter is required (YYYY-MM-DD)"})
		return time.Time{}, false
	}
	day, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return time.Time{}, false
	}
	return day, true
}

// RunCarpoolDetection rebuilds the carpool groups for one calendar date.
func RunCarpoolDetection(c *gin.Context) {
	day, ok := parseDateParam(c)
	if !ok {
		return
	}

	summary, err := carpool.NewDetector(config.DB).Run(day)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Carpool detection failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"carpool": summary})
}

// ListCarpoolGroups returns the groups and memberships stored for a date.
func ListCarpoolGroups(c *gin.Context) {
	day, ok := parseDateParam(c)
	if !ok {
		return
	}

	var groups []models.CarpoolGroup
	if err := config.DB.Where("date = ?", day).Order("id asc").Find(&groups).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing carpool groups: " + err.Error()})
		return
	}

	out := make([]gin.H, 0, len(groups))
	for _, g := range groups {
		var members []models.CarpoolMembership
		if err := config.DB.Where("group_id = ?", g.ID).Order("id asc").Find(&members).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing carpool memberships: " + err.Error()})
			return
		}
		out = append(out, gin.H{"group": g, "members": members})
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}
