package models

import (
	"cental/src/types"
)

type User struct {
	ID           uint   `gorm:"primarykey" json:"id"`
	Name         string `json:"name,omitempty"`
	Email        string `gorm:"uniqueIndex" json:"email,omitempty"`
	Role         string `gorm:"default:'customer'" json:"role,omitempty"`
	PasswordHash string `json:"-"`

	Bookings []Booking `gorm:"foreignKey:user_id" json:"bookings,omitempty"`
	Payments []Payment `gorm:"foreignKey:user_id" json:"payments,omitempty"`

	types.Timestamps
}
