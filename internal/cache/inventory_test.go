package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

func setupRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestAsidePopulatesAndHits(t *testing.T) {
	setupRedis(t)
	ctx := context.Background()

	fetches := 0
	fetch := func(dest *cachedUser) func() error {
		return func() error {
			fetches++
			dest.ID = 7
			dest.Username = "alice"
			return nil
		}
	}

	var first cachedUser
	require.NoError(t, Aside(ctx, UserKey(7), &first, UserTTL, fetch(&first)))
	assert.Equal(t, "alice", first.Username)
	assert.Equal(t, 1, fetches)

	// Second read must come from the cache.
	var second cachedUser
	require.NoError(t, Aside(ctx, UserKey(7), &second, UserTTL, fetch(&second)))
	assert.Equal(t, "alice", second.Username)
	assert.Equal(t, 1, fetches)
}

func TestInvalidateUserForcesRefetch(t *testing.T) {
	setupRedis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, UserKey(7), cachedUser{ID: 7, Username: "stale"}, UserTTL))
	InvalidateUser(ctx, 7)

	var got cachedUser
	found, err := GetJSON(ctx, UserKey(7), &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAsideWithoutClientAlwaysFetches(t *testing.T) {
	SetClient(nil)
	ctx := context.Background()

	fetches := 0
	var got cachedUser
	fetch := func() error {
		fetches++
		got.Username = "direct"
		return nil
	}
	require.NoError(t, Aside(ctx, UserKey(1), &got, UserTTL, fetch))
	require.NoError(t, Aside(ctx, UserKey(1), &got, UserTTL, fetch))
	assert.Equal(t, 2, fetches)
}

func TestTokenRevocation(t *testing.T) {
	setupRedis(t)
	ctx := context.Background()

	issuedBefore := time.Now().Add(-time.Minute)

	revoked, err := IsTokenRevoked(ctx, 7, issuedBefore)
	require.NoError(t, err)
	assert.False(t, revoked, "no mark set yet")

	require.NoError(t, RevokeUserTokens(ctx, 7))

	revoked, err = IsTokenRevoked(ctx, 7, issuedBefore)
	require.NoError(t, err)
	assert.True(t, revoked, "token issued before the mark")

	issuedAfter := time.Now().Add(time.Hour)
	revoked, err = IsTokenRevoked(ctx, 7, issuedAfter)
	require.NoError(t, err)
	assert.False(t, revoked, "token issued after the mark stays valid")

	// A different user's sessions are unaffected.
	revoked, err = IsTokenRevoked(ctx, 8, issuedBefore)
	require.NoError(t, err)
	assert.False(t, revoked)
}
