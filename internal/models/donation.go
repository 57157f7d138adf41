package models

import (
	"time"

	"gorm.io/gorm"
)

// Donation is the stored row. Timestamps other than CreatedAt/UpdatedAt are
// nullable; domain.NormalizeDonation turns a row into the canonical record.
type Donation struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	FoodType           string         `gorm:"size:128;not null" json:"food_type"`
	Description        string         `gorm:"type:text" json:"description"`
	QuantityKg         float64        `gorm:"not null" json:"quantity_kg"`
	Location           string         `gorm:"size:255;not null" json:"location"`
	ExpiryDate         *time.Time     `json:"expiry_date"`
	ContactInfo        string         `gorm:"size:255" json:"contact_info"`
	DonorID            uint           `gorm:"not null;index" json:"donor_id"`
	DonorName          string         `gorm:"size:128" json:"donor_name"`
	Status             string         `gorm:"size:20;not null;index" json:"status"` // available | claimed | completed
	ClaimedBy          *uint          `gorm:"index" json:"claimed_by"`
	ClaimedAt          *time.Time     `json:"claimed_at"`
	CompletedAt        *time.Time     `json:"completed_at"`
	Images             string         `gorm:"type:text" json:"-"`     // JSON array of URLs
	Tags               string         `gorm:"type:text" json:"-"`     // JSON array
	Urgency            string         `gorm:"size:10" json:"urgency"` // low | medium | high
	PickupInstructions string         `gorm:"type:text" json:"pickup_instructions"`
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`

	Donor User `gorm:"foreignKey:DonorID" json:"-"`
}

func (Donation) TableName() string { return "donations" }
