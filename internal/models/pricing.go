package models

import "time"

// PricePerLitreSetting is the pricing row read at order creation.
const PricePerLitreSetting = "price_per_litre"

type PricingSetting struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null"` // price_per_litre
	Value     float64   `json:"value" gorm:"not null"`
	IsActive  bool      `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
