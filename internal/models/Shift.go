package models

import (
	"time"

	"gorm.io/gorm"
)

// Shift statuses. Completed shifts get a full, final detection pass;
// active shifts get incremental passes that never touch already-finalized results.
const (
	ShiftActive    = "active"
	ShiftCompleted = "completed"
)

type Shift struct {
	gorm.Model
	EmployeeID uint     `json:"employee_id" gorm:"index"`
	Employee   Employee `gorm:"foreignKey:EmployeeID" json:"-"`

	Status string `json:"status" gorm:"default:active"` // "active" | "completed"

	ClockInAt   time.Time  `json:"clock_in_at"`
	ClockOutAt  *time.Time `json:"clock_out_at,omitempty"`
	ClockInLat  float64    `json:"clock_in_lat"`
	ClockInLng  float64    `json:"clock_in_lng"`
	ClockOutLat *float64   `json:"clock_out_lat,omitempty"`
	ClockOutLng *float64   `json:"clock_out_lng,omitempty"`
}
