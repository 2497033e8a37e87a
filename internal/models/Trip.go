package models

import (
	"time"

	"gorm.io/gorm"
)

// Transport modes assigned by the classifier.
const (
	ModeDriving = "driving"
	ModeWalking = "walking"
	ModeUnknown = "unknown"
)

// Trip classifications. Everything defaults to business; personal is a
// manual override made downstream.
const (
	ClassificationBusiness = "business"
	ClassificationPersonal = "personal"
)

// MatchStatus values owned by the external road-matching collaborator.
// "pending" means the trip has not been looked at yet. Trips in
// "matched"/"failed"/"anomalous" have been consumed and are immutable
// until the shift is re-opened.
const (
	MatchStatusPending    = "pending"
	MatchStatusProcessing = "processing"
	MatchStatusMatched    = "matched"
	MatchStatusFailed     = "failed"
	MatchStatusAnomalous  = "anomalous"
)

// Trip is a movement between two stops. Start/end coordinates come from the
// departure/arrival cluster centroids when those exist, raw fixes otherwise.
type Trip struct {
	gorm.Model
	ShiftID    uint `json:"shift_id" gorm:"index"`
	EmployeeID uint `json:"employee_id" gorm:"index"`

	StartedAt time.Time `json:"started_at" gorm:"index"`
	EndedAt   time.Time `json:"ended_at"`

	StartLatitude  float64 `json:"start_latitude"`
	StartLongitude float64 `json:"start_longitude"`
	EndLatitude    float64 `json:"end_latitude"`
	EndLongitude   float64 `json:"end_longitude"`

	DistanceKm  float64 `json:"distance_km"`
	DurationMin float64 `json:"duration_min"`

	Classification string  `json:"classification" gorm:"default:business"`
	TransportMode  string  `json:"transport_mode"`
	Confidence     float64 `json:"confidence"` // 0..1, penalized by low-accuracy fixes
	PointCount     int     `json:"point_count"`

	StartClusterID *uint `json:"start_cluster_id,omitempty"`
	EndClusterID   *uint `json:"end_cluster_id,omitempty"`

	StartLocationID  *uint  `json:"start_location_id,omitempty"`
	EndLocationID    *uint  `json:"end_location_id,omitempty"`
	StartMatchMethod string `json:"start_match_method,omitempty"`
	EndMatchMethod   string `json:"end_match_method,omitempty"`

	MatchStatus string `json:"match_status" gorm:"default:pending;index"`

	Points []TripPoint `gorm:"foreignKey:TripID;constraint:OnDelete:CASCADE;" json:"points,omitempty"`
}

// TripPoint links a trip to one of its contributing fixes. The links are
// written in the same transaction as the trip row.
type TripPoint struct {
	gorm.Model
	TripID   uint `json:"trip_id" gorm:"index"`
	GpsFixID uint `json:"gps_fix_id" gorm:"index"`
	Seq      int  `json:"seq"`
}
