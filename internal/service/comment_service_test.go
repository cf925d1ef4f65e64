package service

import (
	"context"
	"strings"
	"testing"

	"simplesocial/internal/models"
	"simplesocial/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCommentService(db *gorm.DB) *CommentService {
	return NewCommentService(db, newTestImageService())
}

func TestCreateCommentValidation(t *testing.T) {
	db := testutil.OpenSQLite(t)
	svc := newCommentService(db)
	ctx := context.Background()

	alice := testutil.NewUser(t, db, "alice")
	post := testutil.NewPost(t, db, alice.ID)

	_, err := svc.CreateComment(ctx, alice.ID, post.ID, "  ", nil)
	assert.Equal(t, "VALIDATION_ERROR", appCode(t, err))

	_, err = svc.CreateComment(ctx, alice.ID, post.ID, strings.Repeat("x", 5001), nil)
	assert.Equal(t, "VALIDATION_ERROR", appCode(t, err))

	_, err = svc.CreateComment(ctx, alice.ID, 9999, "text", nil)
	assert.Equal(t, "NOT_FOUND", appCode(t, err))

	_, err = svc.CreateComment(ctx, 9999, post.ID, "text", nil)
	assert.Equal(t, "NOT_FOUND", appCode(t, err))
}

func TestCreateCommentWithPictures(t *testing.T) {
	db := testutil.OpenSQLite(t)
	svc := newCommentService(db)
	ctx := context.Background()

	alice := testutil.NewUser(t, db, "alice")
	post := testutil.NewPost(t, db, alice.ID)

	uploads := []PictureUpload{{Content: testutil.TinyPNG(t, 4, 4), ContentType: "image/png"}}
	comment, err := svc.CreateComment(ctx, alice.ID, post.ID, "with picture", uploads)
	require.NoError(t, err)
	require.Len(t, comment.Pictures, 1)

	stored, err := svc.GetPicture(ctx, comment.Pictures[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", stored.ContentType)
	assert.NotEmpty(t, stored.Thumbnail)
}

// TestDeleteCommentAuthorization walks the permission chain: comment owner,
// then parent post owner, then admin; anyone else is rejected.
func TestDeleteCommentAuthorization(t *testing.T) {
	db := testutil.OpenSQLite(t)
	svc := newCommentService(db)
	ctx := context.Background()

	postOwner := testutil.NewUser(t, db, "owner")
	commenter := testutil.NewUser(t, db, "commenter")
	bystander := testutil.NewUser(t, db, "bystander")
	admin := testutil.NewUser(t, db, "root", func(u *models.User) { u.IsAdmin = true })
	post := testutil.NewPost(t, db, postOwner.ID)

	first := testutil.NewComment(t, db, commenter.ID, post.ID)
	err := svc.DeleteComment(ctx, bystander.ID, first.ID)
	assert.Equal(t, "UNAUTHORIZED", appCode(t, err))
	require.NoError(t, svc.DeleteComment(ctx, commenter.ID, first.ID))

	second := testutil.NewComment(t, db, commenter.ID, post.ID)
	require.NoError(t, svc.DeleteComment(ctx, postOwner.ID, second.ID))

	third := testutil.NewComment(t, db, commenter.ID, post.ID)
	require.NoError(t, svc.DeleteComment(ctx, admin.ID, third.ID))

	err = svc.DeleteComment(ctx, commenter.ID, third.ID)
	assert.Equal(t, "NOT_FOUND", appCode(t, err))
}

func TestDeleteCommentCascade(t *testing.T) {
	db := testutil.OpenSQLite(t)
	comments := newCommentService(db)
	relations := newRelationService(db)
	ctx := context.Background()

	alice := testutil.NewUser(t, db, "alice")
	bob := testutil.NewUser(t, db, "bob")
	post := testutil.NewPost(t, db, alice.ID)

	uploads := []PictureUpload{{Content: testutil.TinyPNG(t, 4, 4), ContentType: "image/png"}}
	comment, err := comments.CreateComment(ctx, bob.ID, post.ID, "doomed", uploads)
	require.NoError(t, err)
	_, err = relations.ToggleCommentLike(ctx, alice.ID, comment.ID)
	require.NoError(t, err)

	require.NoError(t, comments.DeleteComment(ctx, bob.ID, comment.ID))

	var count int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.CommentPicture{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.LikedComment{}).Count(&count).Error)
	assert.Zero(t, count)

	// The parent post is untouched.
	var postCount int64
	require.NoError(t, db.Model(&models.Post{}).Where("id = ?", post.ID).Count(&postCount).Error)
	assert.EqualValues(t, 1, postCount)
}

func TestListCommentsLikedFlag(t *testing.T) {
	db := testutil.OpenSQLite(t)
	comments := newCommentService(db)
	relations := newRelationService(db)
	ctx := context.Background()

	alice := testutil.NewUser(t, db, "alice")
	bob := testutil.NewUser(t, db, "bob")
	post := testutil.NewPost(t, db, alice.ID)
	comment := testutil.NewComment(t, db, bob.ID, post.ID)

	_, err := relations.ToggleCommentLike(ctx, alice.ID, comment.ID)
	require.NoError(t, err)

	listed, err := comments.ListComments(ctx, post.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.True(t, listed[0].Liked)
	assert.EqualValues(t, 1, listed[0].Likes)

	listed, err = comments.ListComments(ctx, post.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.False(t, listed[0].Liked)
}
