package models

import "gorm.io/gorm"

type Employee struct {
	gorm.Model
	Name     string `json:"name"`
	Email    string `json:"email" gorm:"unique"`
	Password string `json:"-"`
	Phone    string `json:"phone"`
	Role     string `json:"role"` // "employee", "supervisor"

	Shifts         []Shift         `gorm:"foreignKey:EmployeeID" json:"shifts,omitempty"`
	VehiclePeriods []VehiclePeriod `gorm:"foreignKey:EmployeeID" json:"vehicle_periods,omitempty"`
}
