package seed

import (
	"testing"

	"simplesocial/internal/models"
	"simplesocial/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestFactoryBuildsValidUsers(t *testing.T) {
	db := testutil.OpenSQLite(t)
	factory := NewFactory(db)

	user, err := factory.CreateUser()
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEmpty(t, user.Username)
	assert.NotEmpty(t, user.Email)

	err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(DefaultPassword))
	assert.NoError(t, err, "seeded accounts share the default password")
}

// TestSeededCountersMatchEdges verifies that the seeder's denormalized
// counters agree with the edge tables it created.
func TestSeededCountersMatchEdges(t *testing.T) {
	db := testutil.OpenSQLite(t)
	seeder := NewSeeder(db)

	users, err := seeder.SeedSocialMesh(8)
	require.NoError(t, err)
	require.Len(t, users, 8)

	postCount, err := seeder.SeedEngagement(users, 12)
	require.NoError(t, err)
	assert.Equal(t, 12, postCount)

	for _, u := range users {
		var got models.User
		require.NoError(t, db.First(&got, u.ID).Error)

		var follows, readers int64
		require.NoError(t, db.Model(&models.Following{}).
			Where("reader_id = ?", u.ID).Count(&follows).Error)
		require.NoError(t, db.Model(&models.Following{}).
			Where("followed_user_id = ?", u.ID).Count(&readers).Error)

		assert.EqualValues(t, follows, got.FollowsCount, "user %d follows", u.ID)
		assert.EqualValues(t, readers, got.ReadersCount, "user %d readers", u.ID)
	}

	var posts []models.Post
	require.NoError(t, db.Find(&posts).Error)
	for _, p := range posts {
		var likes int64
		require.NoError(t, db.Model(&models.LikedPost{}).
			Where("post_id = ?", p.ID).Count(&likes).Error)
		assert.EqualValues(t, likes, p.Likes, "post %d likes", p.ID)
	}
}

func TestClearAllEmptiesEveryTable(t *testing.T) {
	db := testutil.OpenSQLite(t)
	seeder := NewSeeder(db)

	users, err := seeder.SeedSocialMesh(4)
	require.NoError(t, err)
	_, err = seeder.SeedEngagement(users, 5)
	require.NoError(t, err)

	require.NoError(t, seeder.ClearAll())

	for _, model := range []any{
		&models.User{}, &models.Post{}, &models.Comment{},
		&models.Following{}, &models.LikedPost{}, &models.LikedComment{},
		&models.PostPicture{}, &models.CommentPicture{},
	} {
		var count int64
		require.NoError(t, db.Model(model).Count(&count).Error)
		assert.Zero(t, count)
	}
}
