package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Phone     string         `json:"phone" gorm:"uniqueIndex;not null"`
	Name      string         `json:"name" gorm:"not null"`
	Role      string         `json:"role" gorm:"default:'MAIN_USER'"` // MAIN_USER, SUB_USER, DRIVER, CRM_ADMIN, SUPER_ADMIN
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

type Role string

const (
	RoleMainUser   Role = "MAIN_USER"
	RoleSubUser    Role = "SUB_USER"
	RoleDriver     Role = "DRIVER"
	RoleCRMAdmin   Role = "CRM_ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// Driver is the delivery profile attached to a DRIVER-role user.
// A driver is dispatchable only while online with a vehicle assigned.
type Driver struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	UserID        uint           `json:"user_id" gorm:"uniqueIndex;not null"`
	User          *User          `json:"user,omitempty" gorm:"foreignKey:UserID"`
	VehicleNumber string         `json:"vehicle_number"`
	IsOnline      bool           `json:"is_online" gorm:"default:false"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}
