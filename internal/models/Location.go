package models

import "gorm.io/gorm"

// Location is a reference geofence: a named circle against which cluster
// centroids and trip endpoints are matched. Append-mostly; edits trigger the
// rematch service.
type Location struct {
	gorm.Model
	Name      string  `json:"name" binding:"required"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	RadiusM   float64 `json:"radius_m"`
	Active    bool    `json:"active" gorm:"default:true"`
}
