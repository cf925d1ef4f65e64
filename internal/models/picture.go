package models

import (
	"time"
)

// PostPicture is an image attached to a post. The payload is stored
// resized; Thumbnail holds a small webp variant for list views.
type PostPicture struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PostID      uint      `gorm:"not null;index" json:"post_id"`
	Data        []byte    `gorm:"not null" json:"-"`
	Thumbnail   []byte    `json:"-"`
	ContentType string    `gorm:"not null" json:"content_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// CommentPicture is an image attached to a comment.
type CommentPicture struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CommentID   uint      `gorm:"not null;index" json:"comment_id"`
	Data        []byte    `gorm:"not null" json:"-"`
	Thumbnail   []byte    `json:"-"`
	ContentType string    `gorm:"not null" json:"content_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
