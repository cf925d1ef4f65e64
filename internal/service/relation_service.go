// Package service implements the business logic of the application.
package service

import (
	"context"
	"log/slog"

	"simplesocial/internal/middleware"
	"simplesocial/internal/models"
	"simplesocial/internal/notifications"
	"simplesocial/internal/observability"
	"simplesocial/internal/repository"

	"gorm.io/gorm"
)

// ToggleResult reports the state of a relation after a toggle.
type ToggleResult struct {
	// Active is true when the toggle created the edge, false when it removed it.
	Active bool `json:"active"`
	// Count is the target's denormalized counter after the toggle
	// (readers for follows, likes for posts and comments).
	Count int `json:"count"`
}

// RelationService is the toggle engine for follow and like edges. Every
// toggle runs in one transaction: edge lookup, edge add or remove and the
// paired counter adjustment commit or roll back together, so an edge can
// never exist without its counter contribution or vice versa.
type RelationService struct {
	db       *gorm.DB
	notifier *notifications.Notifier
}

// NewRelationService returns a new RelationService.
func NewRelationService(db *gorm.DB, notifier *notifications.Notifier) *RelationService {
	return &RelationService{db: db, notifier: notifier}
}

// ToggleFollow flips the follow edge from actor to target. Adding the edge
// increments the target's readers count and the actor's follows count;
// removing it decrements both.
func (s *RelationService) ToggleFollow(ctx context.Context, actorID, targetUserID uint) (*ToggleResult, error) {
	if actorID == targetUserID {
		return nil, models.NewValidationError("Cannot follow yourself")
	}

	var result ToggleResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := repository.NewUserRepository(tx)
		relations := repository.NewRelationRepository(tx)
		counters := repository.NewCounterRepository(tx)

		// Lock both user rows in id order so two opposing toggles cannot
		// deadlock on each other.
		firstID, secondID := targetUserID, actorID
		if actorID < targetUserID {
			firstID, secondID = actorID, targetUserID
		}
		first, err := users.GetByIDForUpdate(ctx, firstID)
		if err != nil {
			return err
		}
		second, err := users.GetByIDForUpdate(ctx, secondID)
		if err != nil {
			return err
		}
		target := first
		if second.ID == targetUserID {
			target = second
		}

		edge, err := relations.FindFollowing(ctx, targetUserID, actorID)
		if err != nil {
			return err
		}

		if edge != nil {
			if err := relations.RemoveFollowing(ctx, targetUserID, actorID); err != nil {
				return err
			}
			if err := counters.AdjustUserReaders(ctx, targetUserID, -1); err != nil {
				return err
			}
			if err := counters.AdjustUserFollows(ctx, actorID, -1); err != nil {
				return err
			}
			result = ToggleResult{Active: false, Count: target.ReadersCount - 1}
			return nil
		}

		if err := relations.AddFollowing(ctx, targetUserID, actorID); err != nil {
			return err
		}
		if err := counters.AdjustUserReaders(ctx, targetUserID, 1); err != nil {
			return err
		}
		if err := counters.AdjustUserFollows(ctx, actorID, 1); err != nil {
			return err
		}
		result = ToggleResult{Active: true, Count: target.ReadersCount + 1}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordToggle(ctx, "follow", actorID, targetUserID, result)
	eventType := notifications.EventUnfollowed
	if result.Active {
		eventType = notifications.EventFollowed
	}
	_ = s.notifier.PublishUser(ctx, targetUserID, notifications.Event{
		Type:     eventType,
		ActorID:  actorID,
		TargetID: targetUserID,
		Count:    result.Count,
	})

	return &result, nil
}

// TogglePostLike flips the like edge from actor to post and keeps the
// post's likes counter in lockstep.
func (s *RelationService) TogglePostLike(ctx context.Context, actorID, postID uint) (*ToggleResult, error) {
	var result ToggleResult
	var ownerID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := repository.NewUserRepository(tx)
		posts := repository.NewPostRepository(tx)
		relations := repository.NewRelationRepository(tx)
		counters := repository.NewCounterRepository(tx)

		post, err := posts.GetByIDForUpdate(ctx, postID)
		if err != nil {
			return err
		}
		ownerID = post.UserID
		if _, err := users.GetByIDForUpdate(ctx, actorID); err != nil {
			return err
		}

		edge, err := relations.FindPostLike(ctx, actorID, postID)
		if err != nil {
			return err
		}

		if edge != nil {
			if err := relations.RemovePostLike(ctx, actorID, postID); err != nil {
				return err
			}
			if err := counters.AdjustPostLikes(ctx, postID, -1); err != nil {
				return err
			}
			result = ToggleResult{Active: false, Count: post.Likes - 1}
			return nil
		}

		if err := relations.AddPostLike(ctx, actorID, postID); err != nil {
			return err
		}
		if err := counters.AdjustPostLikes(ctx, postID, 1); err != nil {
			return err
		}
		result = ToggleResult{Active: true, Count: post.Likes + 1}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordToggle(ctx, "post_like", actorID, postID, result)
	eventType := notifications.EventPostUnliked
	if result.Active {
		eventType = notifications.EventPostLiked
	}
	_ = s.notifier.PublishUser(ctx, ownerID, notifications.Event{
		Type:     eventType,
		ActorID:  actorID,
		TargetID: postID,
		Count:    result.Count,
	})

	return &result, nil
}

// ToggleCommentLike flips the like edge from actor to comment and keeps
// the comment's likes counter in lockstep.
func (s *RelationService) ToggleCommentLike(ctx context.Context, actorID, commentID uint) (*ToggleResult, error) {
	var result ToggleResult
	var ownerID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := repository.NewUserRepository(tx)
		comments := repository.NewCommentRepository(tx)
		relations := repository.NewRelationRepository(tx)
		counters := repository.NewCounterRepository(tx)

		comment, err := comments.GetByIDForUpdate(ctx, commentID)
		if err != nil {
			return err
		}
		ownerID = comment.UserID
		if _, err := users.GetByIDForUpdate(ctx, actorID); err != nil {
			return err
		}

		edge, err := relations.FindCommentLike(ctx, actorID, commentID)
		if err != nil {
			return err
		}

		if edge != nil {
			if err := relations.RemoveCommentLike(ctx, actorID, commentID); err != nil {
				return err
			}
			if err := counters.AdjustCommentLikes(ctx, commentID, -1); err != nil {
				return err
			}
			result = ToggleResult{Active: false, Count: comment.Likes - 1}
			return nil
		}

		if err := relations.AddCommentLike(ctx, actorID, commentID); err != nil {
			return err
		}
		if err := counters.AdjustCommentLikes(ctx, commentID, 1); err != nil {
			return err
		}
		result = ToggleResult{Active: true, Count: comment.Likes + 1}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordToggle(ctx, "comment_like", actorID, commentID, result)
	eventType := notifications.EventCommentUnliked
	if result.Active {
		eventType = notifications.EventCommentLiked
	}
	_ = s.notifier.PublishUser(ctx, ownerID, notifications.Event{
		Type:     eventType,
		ActorID:  actorID,
		TargetID: commentID,
		Count:    result.Count,
	})

	return &result, nil
}

// ListFollowing returns the users the given user follows.
func (s *RelationService) ListFollowing(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Joins("JOIN followings f ON users.id = f.followed_user_id").
		Where("f.reader_id = ?", userID).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// ListFollowers returns the users following the given user.
func (s *RelationService) ListFollowers(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Joins("JOIN followings f ON users.id = f.reader_id").
		Where("f.followed_user_id = ?", userID).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (s *RelationService) recordToggle(ctx context.Context, relation string, actorID, targetID uint, result ToggleResult) {
	outcome := "removed"
	if result.Active {
		outcome = "added"
	}
	observability.RelationToggles.WithLabelValues(relation, outcome).Inc()
	middleware.Logger.InfoContext(ctx, "relation toggled",
		slog.String("relation", relation),
		slog.String("outcome", outcome),
		slog.Any("actor_id", actorID),
		slog.Any("target_id", targetID),
		slog.Int("count", result.Count),
	)
}
