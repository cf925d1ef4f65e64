package models

import (
	"time"
)

// Comment represents a comment on a post.
//
// Likes is denormalized and adjusted in the same transaction as every
// LikedComment edge mutation.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	Post      Post      `gorm:"foreignKey:PostID" json:"-"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Likes     int       `gorm:"not null;default:0" json:"likes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Pictures []CommentPicture `gorm:"foreignKey:CommentID" json:"pictures,omitempty"`

	// Liked indicates whether the current requesting user liked this comment (computed)
	Liked bool `gorm:"->;-:migration" json:"liked"`
}
