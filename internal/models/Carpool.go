package models

import (
	"time"

	"gorm.io/gorm"
)

// Carpool membership roles.
const (
	CarpoolRoleDriver     = "driver"
	CarpoolRolePassenger  = "passenger"
	CarpoolRoleUnassigned = "unassigned"
)

// CarpoolGroup groups simultaneous, co-located driving trips of different
// employees on one calendar day. Groups for a day are fully replaced on each
// detector run.
type CarpoolGroup struct {
	gorm.Model
	Date             time.Time `json:"date" gorm:"index"` // calendar day, midnight UTC
	DriverEmployeeID *uint     `json:"driver_employee_id,omitempty"`
	NeedsReview      bool      `json:"needs_review"`

	Memberships []CarpoolMembership `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE;" json:"memberships,omitempty"`
}

type CarpoolMembership struct {
	gorm.Model
	GroupID    uint   `json:"group_id" gorm:"index"`
	TripID     uint   `json:"trip_id" gorm:"index"`
	EmployeeID uint   `json:"employee_id" gorm:"index"`
	Role       string `json:"role" gorm:"default:unassigned"` // "driver" | "passenger" | "unassigned"
}
