package models

import (
	"time"

	"gorm.io/gorm"
)

// VehiclePeriod marks a date range during which an employee has a personal
// vehicle available. Used by the carpool detector for driver assignment.
// A nil EndsOn means the period is open-ended.
type VehiclePeriod struct {
	gorm.Model
	EmployeeID uint       `json:"employee_id" gorm:"index"`
	StartsOn   time.Time  `json:"starts_on"`
	EndsOn     *time.Time `json:"ends_on,omitempty"`
	Active     bool       `json:"active" gorm:"default:true"`
}

// Covers reports whether the period is in force on the given date.
func (p VehiclePeriod) Covers(date time.Time) bool {
	if !p.Active || date.Before(p.StartsOn) {
		return false
	}
	return p.EndsOn == nil || !date.After(*p.EndsOn)
}
