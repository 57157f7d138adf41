package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Email              string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash       string         `gorm:"size:255" json:"-"`
	DisplayName        string         `gorm:"size:128;not null" json:"display_name"`
	Role               string         `gorm:"size:20;not null;index" json:"role"` // donor | ngo | volunteer | admin
	GoogleID           *string        `gorm:"uniqueIndex;size:255" json:"-"`      // nil for email signups (avoids duplicate '' on unique index)
	AvatarURL          string         `gorm:"size:512" json:"avatar_url"`
	WelcomeEmailSent   bool           `gorm:"default:false" json:"-"`
	WelcomeEmailSentAt *time.Time     `json:"-"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }
