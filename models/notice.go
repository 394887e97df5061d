package models

import (
	"time"
)

// Notice is an operator announcement. Pinned notices sort first.
type Notice struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title       string `json:"title" gorm:"size:200;not null"`
	Content     string `json:"content" gorm:"type:text;not null"`
	IsPinned    bool   `json:"is_pinned" gorm:"index"`
	IsPublished bool   `json:"is_published" gorm:"default:true;index"`
	ViewCount   uint   `json:"view_count"`
}
