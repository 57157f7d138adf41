package domain

import (
	"encoding/json"
	"time"

	"feedra/internal/models"
)

// timeNow is swapped in tests.
var timeNow = time.Now

// Donation is the canonical in-memory record. Every required timestamp is a
// concrete point in time; claim/completion timestamps are nil until the
// corresponding transition happened.
type Donation struct {
	ID                 uint       `json:"id"`
	FoodType           string     `json:"food_type"`
	Description        string     `json:"description"`
	QuantityKg         float64    `json:"quantity_kg"`
	Location           string     `json:"location"`
	ExpiryDate         time.Time  `json:"expiry_date"`
	ContactInfo        string     `json:"contact_info"`
	DonorID            uint       `json:"donor_id"`
	DonorName          string     `json:"donor_name"`
	Status             string     `json:"status"`
	ClaimedBy          *uint      `json:"claimed_by,omitempty"`
	ClaimedAt          *time.Time `json:"claimed_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	Images             []string   `json:"images"`
	Tags               []string   `json:"tags"`
	Urgency            string     `json:"urgency"`
	PickupInstructions string     `json:"pickup_instructions,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

type Payment struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizeDonation converts a stored row into the canonical record.
// Missing required timestamps default to the current instant, optional
// claim/completion timestamps stay nil, urgency defaults to medium and
// tag/image sets to empty. Missing timestamps are never an error.
func NormalizeDonation(m *models.Donation) Donation {
	now := timeNow()
	d := Donation{
		ID:                 m.ID,
		FoodType:           m.FoodType,
		Description:        m.Description,
		QuantityKg:         m.QuantityKg,
		Location:           m.Location,
		ExpiryDate:         now,
		ContactInfo:        m.ContactInfo,
		DonorID:            m.DonorID,
		DonorName:          m.DonorName,
		Status:             m.Status,
		ClaimedBy:          m.ClaimedBy,
		ClaimedAt:          m.ClaimedAt,
		CompletedAt:        m.CompletedAt,
		Images:             decodeStrings(m.Images),
		Tags:               decodeStrings(m.Tags),
		Urgency:            m.Urgency,
		PickupInstructions: m.PickupInstructions,
		CreatedAt:          now,
	}
	if m.ExpiryDate != nil && !m.ExpiryDate.IsZero() {
		d.ExpiryDate = *m.ExpiryDate
	}
	if !m.CreatedAt.IsZero() {
		d.CreatedAt = m.CreatedAt
	}
	if d.Urgency == "" {
		d.Urgency = UrgencyMedium
	}
	return d
}

// NormalizePayment converts a stored payment row into the canonical record,
// defaulting a missing creation time to now.
func NormalizePayment(m *models.Payment) Payment {
	p := Payment{
		ID:        m.ID,
		UserID:    m.UserID,
		Amount:    m.Amount,
		Status:    m.Status,
		CreatedAt: m.CreatedAt,
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = timeNow()
	}
	return p
}

// EncodeStrings serializes a tag or image set for storage. Nil encodes as
// the empty set.
func EncodeStrings(v []string) string {
	if v == nil {
		v = []string{}
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func decodeStrings(s string) []string {
	if s == "" {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil || out == nil {
		return []string{}
	}
	return out
}
