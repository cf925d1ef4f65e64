package models

import (
	"time"
)

// Following is a directed follow edge between two users.
// The reader follows the followed user. The pair is the primary key;
// edges carry no surrogate id, so an edge exists at most once per pair.
type Following struct {
	FollowedUserID uint      `gorm:"primaryKey;autoIncrement:false" json:"followed_user_id"`
	ReaderID       uint      `gorm:"primaryKey;autoIncrement:false" json:"reader_id"`
	CreatedAt      time.Time `json:"created_at"`

	FollowedUser User `gorm:"foreignKey:FollowedUserID" json:"followed_user,omitempty"`
	Reader       User `gorm:"foreignKey:ReaderID" json:"reader,omitempty"`
}

// TableName specifies the table name for GORM
func (Following) TableName() string {
	return "followings"
}

// LikedPost is a like edge from a user to a post, keyed by the pair.
type LikedPost struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	PostID    uint      `gorm:"primaryKey;autoIncrement:false" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Post Post `gorm:"foreignKey:PostID" json:"post,omitempty"`
}

// TableName specifies the table name for GORM
func (LikedPost) TableName() string {
	return "liked_posts"
}

// LikedComment is a like edge from a user to a comment, keyed by the pair.
type LikedComment struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	CommentID uint      `gorm:"primaryKey;autoIncrement:false" json:"comment_id"`
	CreatedAt time.Time `json:"created_at"`

	User    User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Comment Comment `gorm:"foreignKey:CommentID" json:"comment,omitempty"`
}

// TableName specifies the table name for GORM
func (LikedComment) TableName() string {
	return "liked_comments"
}
