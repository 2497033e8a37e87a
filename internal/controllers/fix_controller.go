package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	logrus "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/config"
	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/models"
)

// fixInput is one sample in a batch upload from the mobile client.
type fixInput struct {
	Latitude      float64   `json:"latitude" binding:"required"`
	Longitude     float64   `json:"longitude" binding:"required"`
	Accuracy      float64   `json:"accuracy"`
	Speed         *float64  `json:"speed"`
	Heading       *float64  `json:"heading"`
	Altitude      *float64  `json:"altitude"`
	ActivityLabel string    `json:"activity_label"`
	IsMock        bool      `json:"is_mock"`
	CapturedAt    time.Time `json:"captured_at" binding:"required"`
}

type ingestInput struct {
	Fixes []fixInput `json:"fixes" binding:"required"`
}

// IngestFixes appends a batch of GPS fixes to a shift. The store is
// append-only; a re-uploaded sample (same shift and capture time) is skipped,
// so clients can retry whole batches safely.
func IngestFixes(c *gin.Context) {
	employeeID := c.MustGet("user_id").(uint)

	shiftID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shift ID format."})
		return
	}

	var shift models.Shift
	if err := config.DB.First(&shift, uint(shiftID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Shift not found."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error: " + err.Error()})
		return
	}
	if shift.EmployeeID != employeeID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Shift belongs to a different employee."})
		return
	}

	var input ingestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	saved, skipped := 0, 0
	for _, f := range input.Fixes {
		fix := models.GpsFix{
			ShiftID:       shift.ID,
			EmployeeID:    shift.EmployeeID,
			Latitude:      f.Latitude,
			Longitude:     f.Longitude,
			Accuracy:      f.Accuracy,
			Speed:         f.Speed,
			Heading:       f.Heading,
			Altitude:      f.Altitude,
			ActivityLabel: f.ActivityLabel,
			IsMock:        f.IsMock,
			CapturedAt:    f.CapturedAt.UTC(),
		}
		if err := config.DB.Create(&fix).Error; err != nil {
			var pgErr *pq.Error
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				skipped++
				continue
			}
			logrus.WithError(err).WithField("shift_id", shift.ID).Error("Failed to save GPS fix")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save fixes."})
			return
		}
		saved++
		liveHub.Publish(liveUpdate{
			EmployeeID: shift.EmployeeID,
			ShiftID:    shift.ID,
			Latitude:   fix.Latitude,
			Longitude:  fix.Longitude,
			Accuracy:   fix.Accuracy,
			CapturedAt: fix.CapturedAt,
		})
	}

	logrus.WithFields(logrus.Fields{
		"shift_id": shift.ID,
		"saved":    saved,
		"skipped":  skipped,
	}).Debug("GPS fix batch ingested.")
	c.JSON(http.StatusOK, gin.H{"saved": saved, "skipped": skipped})
}

// ListFixes returns a shift's stored fixes in capture order.
func ListFixes(c *gin.Context) {
	shiftID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shift ID format."})
		return
	}

	var fixes []models.GpsFix
	err = config.DB.Where("shift_id = ?", uint(shiftID)).Order("captured_at asc").Find(&fixes).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing fixes: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": fixes})
}
