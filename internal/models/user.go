package models

import (
	"time"
)

// User represents an account.
//
// FollowsCount and ReadersCount are denormalized counters. They are adjusted
// in the same transaction as every Following edge mutation, so at any commit
// boundary FollowsCount equals the number of followings rows with this user
// as reader, and ReadersCount the number with this user as followed.
type User struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Username  string `gorm:"unique;not null" json:"username"`
	Email     string `gorm:"unique;not null" json:"email"`
	Password  string `gorm:"not null" json:"-"`
	About     string `json:"about"`
	Gender    string `json:"gender"`
	Age       int    `json:"age"`
	AvatarURL string `json:"avatar_url"`
	IsAdmin   bool   `gorm:"not null;default:false" json:"is_admin"`

	FollowsCount int `gorm:"not null;default:0" json:"follows_count"`
	ReadersCount int `gorm:"not null;default:0" json:"readers_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Posts []Post `gorm:"foreignKey:UserID" json:"posts,omitempty"`
}
