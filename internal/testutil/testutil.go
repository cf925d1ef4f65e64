// Package testutil provides shared test fixtures and helpers.
package testutil

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"
	"testing"

	"simplesocial/internal/database"
	"simplesocial/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// OpenSQLite opens a per-test in-memory SQLite database with the full
// schema migrated. The DSN is derived from the test name so parallel tests
// do not share state.
func OpenSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := database.ConnectSQLite(dsn)
	require.NoError(t, err)
	return db
}

// NewUser persists a user with sensible defaults.
func NewUser(t *testing.T, db *gorm.DB, username string, overrides ...func(*models.User)) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "irrelevant",
	}
	for _, override := range overrides {
		override(user)
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// NewPost persists a post with a short description.
func NewPost(t *testing.T, db *gorm.DB, userID uint) *models.Post {
	t.Helper()
	post := &models.Post{Description: "hello world", UserID: userID}
	require.NoError(t, db.Create(post).Error)
	return post
}

// NewComment persists a comment under the given post.
func NewComment(t *testing.T, db *gorm.DB, userID, postID uint) *models.Comment {
	t.Helper()
	comment := &models.Comment{Text: "nice post", UserID: userID, PostID: postID}
	require.NoError(t, db.Create(comment).Error)
	return comment
}

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
