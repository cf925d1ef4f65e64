package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	UserKeyPrefix    = "user:%d"
	PostKeyPrefix    = "post:%d"
	RevokedKeyPrefix = "revoked:user:%d"
)

const (
	UserTTL = 5 * time.Minute
	PostTTL = 30 * time.Minute

	// RevocationTTL must outlive the longest-lived access token.
	RevocationTTL = 48 * time.Hour
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func revokedKey(userID uint) string {
	return fmt.Sprintf(RevokedKeyPrefix, userID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidatePost(ctx context.Context, postID uint) {
	Invalidate(ctx, PostKey(postID))
}

// GetJSON reads key into dest. Returns false on miss or when no client is configured.
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if client == nil {
		return false, nil
	}
	s, err := client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, b, ttl).Err()
}

// Aside tries Redis first, on miss it calls fetch (which should populate dest),
// then stores the result in Redis with ttl. fetch must write into dest.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	found, err := GetJSON(ctx, key, dest)
	if err != nil {
		return err
	}
	if found {
		return nil
	}

	if err := fetch(); err != nil {
		return err
	}

	// Store into cache (best-effort)
	_ = SetJSON(ctx, key, dest, ttl)
	return nil
}

// RevokeUserTokens marks all tokens issued to the user before now as invalid.
// Called when an account is deleted so the session dies with the row.
func RevokeUserTokens(ctx context.Context, userID uint) error {
	if client == nil {
		return nil
	}
	now := time.Now().Unix()
	return client.Set(ctx, revokedKey(userID), strconv.FormatInt(now, 10), RevocationTTL).Err()
}

// IsTokenRevoked reports whether a token issued at issuedAt has been revoked
// for the user. Missing key or missing client means not revoked.
func IsTokenRevoked(ctx context.Context, userID uint, issuedAt time.Time) (bool, error) {
	if client == nil {
		return false, nil
	}
	s, err := client.Get(ctx, revokedKey(userID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	mark, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return false, err
	}
	return issuedAt.Unix() <= mark, nil
}
