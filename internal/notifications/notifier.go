// Package notifications publishes social events into Redis channels so
// out-of-process consumers (feeds, push delivery) can react to them.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event types published by the relation engine.
const (
	EventFollowed       = "followed"
	EventUnfollowed     = "unfollowed"
	EventPostLiked      = "post_liked"
	EventPostUnliked    = "post_unliked"
	EventCommentLiked   = "comment_liked"
	EventCommentUnliked = "comment_unliked"
	EventUserDeleted    = "user_deleted"
)

// Event is the payload published for every social event.
type Event struct {
	Type      string    `json:"type"`
	ActorID   uint      `json:"actor_id"`
	TargetID  uint      `json:"target_id"`
	Count     int       `json:"count,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier provides helpers to publish events into Redis channels.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishUser sends an event to a user's channel. A nil client is a no-op so
// the engine works without Redis.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, event Event) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	event.CreatedAt = time.Now().UTC()
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	channel := fmt.Sprintf("events:user:%d", userID)
	return n.rdb.Publish(ctx, channel, payload).Err()
}

// PublishBroadcast sends an event to the broadcast channel.
func (n *Notifier) PublishBroadcast(ctx context.Context, event Event) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	event.CreatedAt = time.Now().UTC()
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return n.rdb.Publish(ctx, "events:broadcast", payload).Err()
}
