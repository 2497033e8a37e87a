package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	logrus "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/config"
	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/detection"
	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/models"
)

type clockInInput struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type clockOutInput struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ClockIn opens a new active shift for the authenticated employee.
func ClockIn(c *gin.Context) {
	employeeID := c.MustGet("user_id").(uint)

	var input clockInInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var open int64
	config.DB.Model(&models.Shift{}).
		Where("employee_id = ? AND status = ?", employeeID, models.ShiftActive).
		Count(&open)
	if open > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "An active shift already exists. Clock out first."})
		return
	}

	shift := models.Shift{
		EmployeeID: employeeID,
		Status:     models.ShiftActive,
		ClockInAt:  time.Now().UTC(),
		ClockInLat: input.Latitude,
		ClockInLng: input.Longitude,
	}
	if err := config.DB.Create(&shift).Error; err != nil {
		logrus.WithError(err).Error("Failed to create shift")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clock in."})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"shift": shift})
}

// ClockOut completes the employee's active shift and runs the full, final
// detection pass for it.
func ClockOut(c *gin.Context) {
	employeeID := c.MustGet("user_id").(uint)

	var input clockOutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var shift models.Shift
	err := config.DB.Where("employee_id = ? AND status = ?", employeeID, models.ShiftActive).First(&shift).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No active shift to clock out of."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error: " + err.Error()})
		return
	}

	now := time.Now().UTC()
	shift.Status = models.ShiftCompleted
	shift.ClockOutAt = &now
	shift.ClockOutLat = &input.Latitude
	shift.ClockOutLng = &input.Longitude
	if err := config.DB.Save(&shift).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clock out: " + err.Error()})
		return
	}

	summary, err := detection.NewService(config.DB).Detect(shift.ID)
	if err != nil {
		logrus.WithError(err).WithField("shift_id", shift.ID).Error("Detection on clock-out failed")
		c.JSON(http.StatusOK, gin.H{"shift": shift, "detection_error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"shift": shift, "detection": summary})
}

// DetectShift runs detection for one shift explicitly.
func DetectShift(c *gin.Context) {
	shiftID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shift ID format."})
		return
	}

	summary, err := detection.NewService(config.DB).Detect(uint(shiftID))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"detection": summary})
}

// SweepActiveShifts runs an incremental detection pass over every active
// shift. Invoked by the periodic scheduler.
func SweepActiveShifts(c *gin.Context) {
	var shifts []models.Shift
	if err := config.DB.Where("status = ?", models.ShiftActive).Find(&shifts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing active shifts: " + err.Error()})
		return
	}

	svc := detection.NewService(config.DB)
	summaries := make([]*detection.RunSummary, 0, len(shifts))
	for _, shift := range shifts {
		summary, err := svc.Detect(shift.ID)
		if err != nil {
			logrus.WithError(err).WithField("shift_id", shift.ID).Warn("Sweep detection failed for shift, continuing.")
			continue
		}
		summaries = append(summaries, summary)
	}
	c.JSON(http.StatusOK, gin.H{"swept": len(summaries), "results": summaries})
}

// ListShiftClusters returns the stationary clusters detected for a shift.
func ListShiftClusters(c *gin.Context) {
	shiftID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shift ID format."})
		return
	}

	var clusters []models.StationaryCluster
	err = config.DB.Where("shift_id = ?", uint(shiftID)).Order("started_at asc").Find(&clusters).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing clusters: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": clusters})
}

// ListShiftTrips returns the trips detected for a shift.
func ListShiftTrips(c *gin.Context) {
	shiftID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shift ID format."})
		return
	}

	var trips []models.Trip
	err = config.DB.Where("shift_id = ?", uint(shiftID)).Order("started_at asc").Find(&trips).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing trips: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": trips})
}
