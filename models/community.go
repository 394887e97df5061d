package models

import (
	"encoding/json"
	"time"
)

// Post categories.
const (
	PostCategoryStory = "story" // long-form story/review
	PostCategoryFeed  = "feed"  // short feed/question
)

type Post struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	AuthorID        uint           `json:"author_id" gorm:"index;not null"`
	Author          User           `json:"author" gorm:"foreignKey:AuthorID"`
	ScholarshipName string         `json:"scholarship_name"`
	Category        string         `json:"category" gorm:"size:16;default:story;index"`
	Title           string         `json:"title" gorm:"not null"`
	Content         string         `json:"content" gorm:"type:text;not null"`
	Tags            json.RawMessage `json:"tags" gorm:"type:jsonb"`

	// Recipient badge; verification flow is manual for now.
	AuthorIsRecipient bool `json:"author_is_recipient"`
	IsPublished       bool `json:"is_published" gorm:"default:true;index"`
	ViewCount         uint `json:"view_count"`
}

type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	PostID   uint   `json:"post_id" gorm:"index;not null"`
	AuthorID uint   `json:"author_id" gorm:"index;not null"`
	Author   User   `json:"author" gorm:"foreignKey:AuthorID"`
	Content  string `json:"content" gorm:"type:text;not null"`
	ParentID *uint  `json:"parent_id,omitempty" gorm:"index"`
}

type PostLike struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	PostID uint `json:"post_id" gorm:"uniqueIndex:uk_post_like;not null"`
	UserID uint `json:"user_id" gorm:"uniqueIndex:uk_post_like;not null"`
}

type PostBookmark struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	PostID uint `json:"post_id" gorm:"uniqueIndex:uk_post_bookmark;not null"`
	UserID uint `json:"user_id" gorm:"uniqueIndex:uk_post_bookmark;not null"`
}

// Conversation is a 1:1 thread. Participation lives in
// ConversationParticipant; leaving removes the participant row and the
// conversation itself is deleted once the last participant is gone.
type Conversation struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
}

type ConversationParticipant struct {
	ID uint `json:"id" gorm:"primaryKey"`

	ConversationID uint `json:"conversation_id" gorm:"uniqueIndex:uk_conversation_user;not null"`
	UserID         uint `json:"user_id" gorm:"uniqueIndex:uk_conversation_user;not null"`
	User           User `json:"user" gorm:"foreignKey:UserID"`
}

type DirectMessage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_dm_conversation_created,priority:2"`

	ConversationID uint   `json:"conversation" gorm:"index:idx_dm_conversation_created,priority:1;index:idx_dm_conversation_read,priority:1;not null"`
	SenderID       uint   `json:"sender_id" gorm:"index;not null"`
	Sender         User   `json:"sender" gorm:"foreignKey:SenderID"`
	Content        string `json:"content" gorm:"type:text;not null"`
	IsRead         bool   `json:"is_read" gorm:"index:idx_dm_conversation_read,priority:2"`
}
