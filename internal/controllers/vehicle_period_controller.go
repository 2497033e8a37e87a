package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/config"
	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/models"
)

type vehiclePeriodInput struct {
	EmployeeID uint   `json:"employee_id" binding:"required"`
	StartsOn   string `json:"starts_on" binding:"required"`
	EndsOn     string `json:"ends_on"`
}

// CreateVehiclePeriod records that an employee has a personal vehicle from a
// given date, optionally until another. The carpool driver assignment reads
// these.
func CreateVehiclePeriod(c *gin.Context) {
	var input vehiclePeriodInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	startsOn, err := time.ParseInLocation("2006-01-02", input.StartsOn, time.UTC)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "starts_on must be YYYY-MM-DD"})
		return
	}
	period := models.VehiclePeriod{
		EmployeeID: input.EmployeeID,
		StartsOn:   startsOn,
		Active:     true,
	}
	if input.EndsOn != "" {
		endsOn, err := time.ParseInLocation("2006-01-02", input.EndsOn, time.UTC)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ends_on must be YYYY-MM-DD"})
			return
		}
		if endsOn.Before(startsOn) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ends_on must not precede starts_on"})
			return
		}
		period.EndsOn = &endsOn
	}

	var employee models.Employee
	if err := config.DB.First(&employee, input.EmployeeID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Employee not found."})
		return
	}

	if err := config.DB.Create(&period).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create vehicle period: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"vehicle_period": period})
}

// EndVehiclePeriod deactivates a period (the employee no longer has the
// vehicle).
func EndVehiclePeriod(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vehicle period ID format."})
		return
	}

	res := config.DB.Model(&models.VehiclePeriod{}).Where("id = ?", uint(id)).
		Update("active", false)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to end vehicle period: " + res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vehicle period not found."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

// ListVehiclePeriods returns an employee's vehicle periods.
func ListVehiclePeriods(c *gin.Context) {
	employeeID, err := strconv.ParseUint(c.Query("employee_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "employee_id query parameter is required"})
		return
	}

	var periods []models.VehiclePeriod
	err = config.DB.Where("employee_id = ?", uint(employeeID)).Order("starts_on asc").Find(&periods).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing vehicle periods: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": periods})
}
