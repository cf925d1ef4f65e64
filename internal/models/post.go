// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// MaxPicturesPerParent caps the picture collection of a post or comment.
// Enforced at mutation time, not as a schema constraint.
const MaxPicturesPerParent = 5

// Post represents a post in the feed.
//
// Likes is denormalized and adjusted in the same transaction as every
// LikedPost edge mutation.
type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Description string    `gorm:"type:text;not null" json:"description"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	User        User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Likes       int       `gorm:"not null;default:0" json:"likes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Pictures []PostPicture `gorm:"foreignKey:PostID" json:"pictures,omitempty"`
	Comments []Comment     `gorm:"foreignKey:PostID" json:"comments,omitempty"`

	// Liked indicates whether the current requesting user liked this post (computed)
	Liked bool `gorm:"->;-:migration" json:"liked"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int `gorm:"->;-:migration" json:"comments_count"`
}
