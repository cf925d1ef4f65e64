package service

import (
	"context"
	"testing"

	"simplesocial/internal/models"
	"simplesocial/internal/notifications"
	"simplesocial/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newRelationService(db *gorm.DB) *RelationService {
	return NewRelationService(db, notifications.NewNotifier(nil))
}

func appCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok, "expected *models.AppError, got %T", err)
	return appErr.Code
}

func TestToggleFollowRoundTrip(t *testing.T) {
	db := testutil.OpenSQLite(t)
	svc := newRelationService(db)
	ctx := context.Background()

	alice := testutil.NewUser(t, db, "alice")
	bob := testutil.NewUser(t, db, "bob")

	result, err := svc.ToggleFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, result.Active)
	assert.Equal(t, 1, result.Count)

	var gotAlice, gotBob models.User
	require.NoError(t, db.First(&gotAlice, alice.ID).Error)
	require.NoError(t, db.First(&gotBob, bob.ID).Error)
	assert.Equal(t, 1, gotAlice.FollowsCount)
	assert.Equal(t, 0, gotAlice.ReadersCount)
	assert.Equal(t, 1, gotBob.ReadersCount)
	assert.Equal(t, 0, gotBob.FollowsCount)

	// Second toggle removes the edge and restores both counters.
	result, err = svc.ToggleFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, result.Active)
	assert.Equal(t, 0, result.Count)

	require.NoError(t, db.First(&gotAlice, alice.ID).Error)
	require.NoError(t, db.First(&gotBob, bob.ID).Error)
	assert.Equal(t, 0, gotAlice.FollowsCount)
	assert.Equal(t, 0, gotBob.ReadersCount)

	var edges int64
	require.NoError(t, db.Model(&models.Following{}).Count(&edges).Error)
	assert.Zero(t, edges)
}

func TestToggleFollowRejectsSelf(t *testing.T) {
	db := testutil.OpenSQLite(t)
	svc := newRelationService(db)

	alice := testutil.NewUser(t, db, "alice")

	_, err := svc.ToggleFollow(context.Background(), alice.ID, alice.ID)
	assert.Equal(t, "VALIDATION_ERROR", appCode(t, err))
}

func TestToggleFollowMissingParties(t *testing.T) {
	db := testutil.OpenSQLite(t)
	svc := newRelationService(db)
	ctx := context.Background()

	alice := testutil.NewUser(t, db, "alice")

	_, err := svc.ToggleFollow(ctx, alice.ID, 9999)
	assert.Equal(t, "NOT_FOUND", appCode(t, err))

	// A vanished actor is reported the same way as a vanished target.
	_, err = svc.ToggleFollow(ctx, 9999, alice.ID)
	assert.Equal(t, "NOT_FOUND", appCode(t, err))
}

func TestTogglePostLikeRoundTrip(t *testing.T) {
	db := testutil.OpenSQLite(t)
	svc := newRelationService(db)
	ctx := context.Background()

	alice := testutil.NewUser(t, db, "alice")
	bob := testutil.NewUser(t, db, "bob")
	post := testutil.NewPost(t, db, bob.ID)

	result, err := svc.TogglePostLike(ctx, alice.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, result.Active)
	assert.Equal(t, 1, result.Count)

	var gotPost models.Post
	require.NoError(t, db.First(&gotPost, post.ID).Error)
	assert.Equal(t, 1, gotPost.Likes)

	// The author liking their own post is allowed.
	result, err = svc.TogglePostLike(ctx, bob.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, result.Active)
	assert.Equal(t, 2, result.Count)

	result, err = svc.TogglePostLike(ctx, alice.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, result.Active)
	assert.Equal(t, 1, result.Count)

	require.NoError(t, db.First(&gotPost, post.ID).Error)
	assert.Equal(t, 1, gotPost.Likes)
}

func TestTogglePostLikeMissingPost(t *testing.T) {
	db := testutil.OpenSQLite(t)
	svc := newRelationService(db)

	alice := testutil.NewUser(t, db, "alice")

	_, err := svc.TogglePostLike(context.Background(), alice.ID, 424242)
	assert.Equal(t, "NOT_FOUND", appCode(t, err))
}

func TestToggleCommentLikeRoundTrip(t *testing.T) {
	db := testutil.OpenSQLite(t)
	svc := newRelationService(db)
	ctx := context.Background()

	alice := testutil.NewUser(t, db, "alice")
	bob := testutil.NewUser(t, db, "bob")
	post := testutil.NewPost(t, db, bob.ID)
	comment := testutil.NewComment(t, db, bob.ID, post.ID)

	result, err := svc.ToggleCommentLike(ctx, alice.ID, comment.ID)
	require.NoError(t, err)
	assert.True(t, result.Active)
	assert.Equal(t, 1, result.Count)

	var got models.Comment
	require.NoError(t, db.First(&got, comment.ID).Error)
	assert.Equal(t, 1, got.Likes)

	result, err = svc.ToggleCommentLike(ctx, alice.ID, comment.ID)
	require.NoError(t, err)
	assert.False(t, result.Active)

	require.NoError(t, db.First(&got, comment.ID).Error)
	assert.Zero(t, got.Likes)
}

func TestListFollowingAndFollowers(t *testing.T) {
	db := testutil.OpenSQLite(t)
	svc := newRelationService(db)
	ctx := context.Background()

	alice := testutil.NewUser(t, db, "alice")
	bob := testutil.NewUser(t, db, "bob")
	carol := testutil.NewUser(t, db, "carol")

	_, err := svc.ToggleFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = svc.ToggleFollow(ctx, alice.ID, carol.ID)
	require.NoError(t, err)
	_, err = svc.ToggleFollow(ctx, carol.ID, bob.ID)
	require.NoError(t, err)

	following, err := svc.ListFollowing(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, following, 2)

	followers, err := svc.ListFollowers(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, followers, 2)

	followers, err = svc.ListFollowers(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, followers)
}
