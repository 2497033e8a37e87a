package models

import (
	"time"

	"gorm.io/gorm"
)

// How a matched location id was assigned. Manual assignments are never
// overwritten by the rematch service.
const (
	MatchMethodAutomatic = "automatic"
	MatchMethodManual    = "manual"
)

// StationaryCluster is a confirmed stop: a group of fixes spanning at least
// the minimum dwell time inside the cluster radius. The centroid is the
// accuracy-weighted average of the member fixes. Two clusters of the same
// shift never overlap in time.
type StationaryCluster struct {
	gorm.Model
	ShiftID    uint `json:"shift_id" gorm:"index"`
	EmployeeID uint `json:"employee_id" gorm:"index"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"` // meters, derived from member accuracies

	StartedAt  time.Time `json:"started_at" gorm:"index"`
	EndedAt    time.Time `json:"ended_at"`
	PointCount int       `json:"point_count"`

	MatchedLocationID *uint  `json:"matched_location_id,omitempty"`
	MatchMethod       string `json:"match_method,omitempty"` // "automatic" | "manual"
}
