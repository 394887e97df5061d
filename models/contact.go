package models

import (
	"time"
)

// ContactMessage is a contact-form submission. The admin alert mail is
// best-effort; the row is the record of truth.
type ContactMessage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	Name      string `json:"name" gorm:"size:100;not null"`
	Email     string `json:"email" gorm:"not null"`
	Message   string `json:"message" gorm:"type:text;not null"`
	IPAddress string `json:"ip_address,omitempty"`
	UserID    *uint  `json:"user_id,omitempty"`
}
