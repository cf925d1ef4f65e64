package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"simplesocial/internal/database"
	"simplesocial/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupTestDB opens a per-test in-memory SQLite database with the full
// schema migrated.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := database.ConnectSQLite(dsn)
	require.NoError(t, err)
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "irrelevant",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestPost(t *testing.T, db *gorm.DB, userID uint) *models.Post {
	t.Helper()
	post := &models.Post{Description: "hello", UserID: userID}
	require.NoError(t, db.Create(post).Error)
	return post
}

func createTestComment(t *testing.T, db *gorm.DB, userID, postID uint) *models.Comment {
	t.Helper()
	comment := &models.Comment{Text: "nice", UserID: userID, PostID: postID}
	require.NoError(t, db.Create(comment).Error)
	return comment
}

func TestFollowingEdgeLifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRelationRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	// Absent edge reads as nil without error.
	edge, err := repo.FindFollowing(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Nil(t, edge)

	require.NoError(t, repo.AddFollowing(ctx, bob.ID, alice.ID))

	edge, err = repo.FindFollowing(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, edge)
	assert.Equal(t, bob.ID, edge.FollowedUserID)
	assert.Equal(t, alice.ID, edge.ReaderID)
	assert.False(t, edge.CreatedAt.IsZero())

	// Second insert of the same pair reports a duplicate edge.
	err = repo.AddFollowing(ctx, bob.ID, alice.ID)
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "DUPLICATE_EDGE", appErr.Code)

	require.NoError(t, repo.RemoveFollowing(ctx, bob.ID, alice.ID))

	// Removing an absent edge is NOT_FOUND.
	err = repo.RemoveFollowing(ctx, bob.ID, alice.ID)
	require.Error(t, err)
	appErr, ok = err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestFollowingEdgeIsDirectional(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRelationRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	require.NoError(t, repo.AddFollowing(ctx, bob.ID, alice.ID))

	// The reverse direction is a distinct edge.
	edge, err := repo.FindFollowing(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, edge)

	require.NoError(t, repo.AddFollowing(ctx, alice.ID, bob.ID))

	follows, err := repo.ListFollows(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, follows, 1)

	readers, err := repo.ListReaders(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, readers, 1)
}

func TestPostLikeEdgeLifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRelationRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	post := createTestPost(t, db, bob.ID)

	require.NoError(t, repo.AddPostLike(ctx, alice.ID, post.ID))

	err := repo.AddPostLike(ctx, alice.ID, post.ID)
	require.Error(t, err)
	assert.Equal(t, "DUPLICATE_EDGE", err.(*models.AppError).Code)

	liked, err := repo.GetLikedPostIDs(ctx, alice.ID, []uint{post.ID, 9999})
	require.NoError(t, err)
	assert.Equal(t, []uint{post.ID}, liked)

	require.NoError(t, repo.RemovePostLike(ctx, alice.ID, post.ID))
	assert.Error(t, repo.RemovePostLike(ctx, alice.ID, post.ID))
}

func TestBulkEdgeRemovals(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRelationRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")
	post := createTestPost(t, db, bob.ID)
	comment := createTestComment(t, db, carol.ID, post.ID)

	// alice follows bob, carol follows alice: both edges touch alice.
	require.NoError(t, repo.AddFollowing(ctx, bob.ID, alice.ID))
	require.NoError(t, repo.AddFollowing(ctx, alice.ID, carol.ID))
	require.NoError(t, repo.AddPostLike(ctx, alice.ID, post.ID))
	require.NoError(t, repo.AddPostLike(ctx, carol.ID, post.ID))
	require.NoError(t, repo.AddCommentLike(ctx, alice.ID, comment.ID))

	n, err := repo.RemoveFollowsInvolving(ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = repo.RemovePostLikesByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = repo.RemoveLikesForPost(ctx, post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n) // carol's like remains until now

	n, err = repo.RemoveLikesForComments(ctx, []uint{comment.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = repo.RemoveLikesForComments(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCounterAdjustments(t *testing.T) {
	db := setupTestDB(t)
	counters := NewCounterRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	post := createTestPost(t, db, alice.ID)

	require.NoError(t, counters.AdjustUserReaders(ctx, alice.ID, 1))
	require.NoError(t, counters.AdjustUserReaders(ctx, alice.ID, 1))
	require.NoError(t, counters.AdjustUserFollows(ctx, alice.ID, 1))
	require.NoError(t, counters.AdjustPostLikes(ctx, post.ID, 3))
	require.NoError(t, counters.AdjustPostLikes(ctx, post.ID, -1))

	var got models.User
	require.NoError(t, db.First(&got, alice.ID).Error)
	assert.Equal(t, 2, got.ReadersCount)
	assert.Equal(t, 1, got.FollowsCount)

	var gotPost models.Post
	require.NoError(t, db.First(&gotPost, post.ID).Error)
	assert.Equal(t, 2, gotPost.Likes)

	// Adjusting a vanished owner is NOT_FOUND so the surrounding
	// transaction aborts.
	err := counters.AdjustPostLikes(ctx, 9999, 1)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", err.(*models.AppError).Code)
}
