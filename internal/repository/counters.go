package repository

import (
	"context"

	"simplesocial/internal/cache"
	"simplesocial/internal/models"
	"simplesocial/internal/observability"

	"gorm.io/gorm"
)

// CounterRepository keeps denormalized counters in lockstep with edge
// mutations. Every call must run in the same transaction as the edge add
// or remove it accompanies; it is never applied standalone.
type CounterRepository interface {
	AdjustUserFollows(ctx context.Context, userID uint, delta int) error
	AdjustUserReaders(ctx context.Context, userID uint, delta int) error
	AdjustPostLikes(ctx context.Context, postID uint, delta int) error
	AdjustCommentLikes(ctx context.Context, commentID uint, delta int) error
}

type counterRepository struct {
	db *gorm.DB
}

// NewCounterRepository creates a counter repository over db, usually a
// transaction handle shared with a RelationRepository.
func NewCounterRepository(db *gorm.DB) CounterRepository {
	return &counterRepository{db: db}
}

func (r *counterRepository) adjust(ctx context.Context, model interface{}, resource, column string, id uint, delta int) error {
	defer observability.TrackQuery("counter_adjust", column)()

	res := r.db.WithContext(ctx).
		Model(model).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta))
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	// A missing row means the counter owner vanished under us; abort the
	// transaction rather than silently dropping the adjustment.
	if res.RowsAffected == 0 {
		return models.NewNotFoundError(resource, id)
	}
	return nil
}

func (r *counterRepository) AdjustUserFollows(ctx context.Context, userID uint, delta int) error {
	if err := r.adjust(ctx, &models.User{}, "User", "follows_count", userID, delta); err != nil {
		return err
	}
	cache.InvalidateUser(ctx, userID)
	return nil
}

func (r *counterRepository) AdjustUserReaders(ctx context.Context, userID uint, delta int) error {
	if err := r.adjust(ctx, &models.User{}, "User", "readers_count", userID, delta); err != nil {
		return err
	}
	cache.InvalidateUser(ctx, userID)
	return nil
}

func (r *counterRepository) AdjustPostLikes(ctx context.Context, postID uint, delta int) error {
	if err := r.adjust(ctx, &models.Post{}, "Post", "likes", postID, delta); err != nil {
		return err
	}
	cache.InvalidatePost(ctx, postID)
	return nil
}

func (r *counterRepository) AdjustCommentLikes(ctx context.Context, commentID uint, delta int) error {
	return r.adjust(ctx, &models.Comment{}, "Comment", "likes", commentID, delta)
}
