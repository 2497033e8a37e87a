package models

import (
	"time"

	"gorm.io/gorm"
)

// GpsFix is one raw sensor sample for a shift. Rows are append-only and
// consumed read-only, ordered strictly by CapturedAt within a shift.
type GpsFix struct {
	gorm.Model
	ShiftID    uint  `json:"shift_id" gorm:"uniqueIndex:idx_fix_shift_captured"`
	Shift      Shift `gorm:"foreignKey:ShiftID" json:"-"`
	EmployeeID uint  `json:"employee_id" gorm:"index"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"` // meters, smaller = better

	Speed    *float64 `json:"speed,omitempty"`    // m/s, device reported
	Heading  *float64 `json:"heading,omitempty"`  // degrees
	Altitude *float64 `json:"altitude,omitempty"` // meters

	ActivityLabel string `json:"activity_label,omitempty"` // e.g. "still", "in_vehicle"
	IsMock        bool   `json:"is_mock"`

	CapturedAt time.Time `json:"captured_at" gorm:"uniqueIndex:idx_fix_shift_captured"`
}
