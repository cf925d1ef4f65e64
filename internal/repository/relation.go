package repository

import (
	"context"
	"errors"
	"time"

	"simplesocial/internal/models"
	"simplesocial/internal/observability"

	"gorm.io/gorm"
)

// RelationRepository is the store for directed edges between entities:
// user→user follows and user→post / user→comment likes. Edges are keyed
// by the (source, target) pair and exist at most once per pair.
//
// Add* reports a duplicate-edge error when the pair already exists;
// Remove* reports not-found when it does not. Find* has no side effects
// and returns (nil, nil) for an absent edge.
type RelationRepository interface {
	FindFollowing(ctx context.Context, followedUserID, readerID uint) (*models.Following, error)
	AddFollowing(ctx context.Context, followedUserID, readerID uint) error
	RemoveFollowing(ctx context.Context, followedUserID, readerID uint) error
	ListFollows(ctx context.Context, readerID uint) ([]models.Following, error)
	ListReaders(ctx context.Context, followedUserID uint) ([]models.Following, error)

	FindPostLike(ctx context.Context, userID, postID uint) (*models.LikedPost, error)
	AddPostLike(ctx context.Context, userID, postID uint) error
	RemovePostLike(ctx context.Context, userID, postID uint) error
	ListPostLikesByUser(ctx context.Context, userID uint) ([]models.LikedPost, error)

	FindCommentLike(ctx context.Context, userID, commentID uint) (*models.LikedComment, error)
	AddCommentLike(ctx context.Context, userID, commentID uint) error
	RemoveCommentLike(ctx context.Context, userID, commentID uint) error
	ListCommentLikesByUser(ctx context.Context, userID uint) ([]models.LikedComment, error)

	GetLikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error)
	GetLikedCommentIDs(ctx context.Context, userID uint, commentIDs []uint) ([]uint, error)

	// Bulk removals used by the cascade resolver. They tolerate zero
	// affected rows and report how many edges were removed.
	RemoveFollowsInvolving(ctx context.Context, userID uint) (int64, error)
	RemovePostLikesByUser(ctx context.Context, userID uint) (int64, error)
	RemoveCommentLikesByUser(ctx context.Context, userID uint) (int64, error)
	RemoveLikesForPost(ctx context.Context, postID uint) (int64, error)
	RemoveLikesForComments(ctx context.Context, commentIDs []uint) (int64, error)
}

// relationRepository implements RelationRepository
type relationRepository struct {
	db *gorm.DB
}

// NewRelationRepository creates a relation repository over db. Pass a
// transaction handle to scope edge mutations to a unit of work.
func NewRelationRepository(db *gorm.DB) RelationRepository {
	return &relationRepository{db: db}
}

func (r *relationRepository) FindFollowing(ctx context.Context, followedUserID, readerID uint) (*models.Following, error) {
	var edge models.Following
	err := r.db.WithContext(ctx).
		Where("followed_user_id = ? AND reader_id = ?", followedUserID, readerID).
		First(&edge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &edge, nil
}

func (r *relationRepository) AddFollowing(ctx context.Context, followedUserID, readerID uint) error {
	defer observability.TrackQuery("insert", "followings")()

	// INSERT ... ON CONFLICT DO NOTHING is atomic; a concurrent add shows up
	// as zero affected rows instead of a driver error.
	res := r.db.WithContext(ctx).Exec(
		`INSERT INTO followings (followed_user_id, reader_id, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT DO NOTHING`,
		followedUserID, readerID, time.Now().UTC(),
	)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewDuplicateEdgeError("Following", readerID, followedUserID)
	}
	return nil
}

func (r *relationRepository) RemoveFollowing(ctx context.Context, followedUserID, readerID uint) error {
	defer observability.TrackQuery("delete", "followings")()

	res := r.db.WithContext(ctx).
		Where("followed_user_id = ? AND reader_id = ?", followedUserID, readerID).
		Delete(&models.Following{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Following edge", followedUserID)
	}
	return nil
}

func (r *relationRepository) ListFollows(ctx context.Context, readerID uint) ([]models.Following, error) {
	var edges []models.Following
	if err := r.db.WithContext(ctx).
		Where("reader_id = ?", readerID).
		Find(&edges).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return edges, nil
}

func (r *relationRepository) ListReaders(ctx context.Context, followedUserID uint) ([]models.Following, error) {
	var edges []models.Following
	if err := r.db.WithContext(ctx).
		Where("followed_user_id = ?", followedUserID).
		Find(&edges).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return edges, nil
}

func (r *relationRepository) FindPostLike(ctx context.Context, userID, postID uint) (*models.LikedPost, error) {
	var edge models.LikedPost
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		First(&edge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &edge, nil
}

func (r *relationRepository) AddPostLike(ctx context.Context, userID, postID uint) error {
	defer observability.TrackQuery("insert", "liked_posts")()

	res := r.db.WithContext(ctx).Exec(
		`INSERT INTO liked_posts (user_id, post_id, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT DO NOTHING`,
		userID, postID, time.Now().UTC(),
	)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewDuplicateEdgeError("LikedPost", userID, postID)
	}
	return nil
}

func (r *relationRepository) RemovePostLike(ctx context.Context, userID, postID uint) error {
	defer observability.TrackQuery("delete", "liked_posts")()

	res := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.LikedPost{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("LikedPost edge", postID)
	}
	return nil
}

func (r *relationRepository) ListPostLikesByUser(ctx context.Context, userID uint) ([]models.LikedPost, error) {
	var edges []models.LikedPost
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&edges).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return edges, nil
}

func (r *relationRepository) FindCommentLike(ctx context.Context, userID, commentID uint) (*models.LikedComment, error) {
	var edge models.LikedComment
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND comment_id = ?", userID, commentID).
		First(&edge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &edge, nil
}

func (r *relationRepository) AddCommentLike(ctx context.Context, userID, commentID uint) error {
	defer observability.TrackQuery("insert", "liked_comments")()

	res := r.db.WithContext(ctx).Exec(
		`INSERT INTO liked_comments (user_id, comment_id, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT DO NOTHING`,
		userID, commentID, time.Now().UTC(),
	)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewDuplicateEdgeError("LikedComment", userID, commentID)
	}
	return nil
}

func (r *relationRepository) RemoveCommentLike(ctx context.Context, userID, commentID uint) error {
	defer observability.TrackQuery("delete", "liked_comments")()

	res := r.db.WithContext(ctx).
		Where("user_id = ? AND comment_id = ?", userID, commentID).
		Delete(&models.LikedComment{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("LikedComment edge", commentID)
	}
	return nil
}

func (r *relationRepository) ListCommentLikesByUser(ctx context.Context, userID uint) ([]models.LikedComment, error) {
	var edges []models.LikedComment
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&edges).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return edges, nil
}

func (r *relationRepository) GetLikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	var liked []uint
	err := r.db.WithContext(ctx).
		Model(&models.LikedPost{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &liked).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return liked, nil
}

func (r *relationRepository) RemoveFollowsInvolving(ctx context.Context, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("reader_id = ? OR followed_user_id = ?", userID, userID).
		Delete(&models.Following{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *relationRepository) RemovePostLikesByUser(ctx context.Context, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.LikedPost{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *relationRepository) RemoveCommentLikesByUser(ctx context.Context, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.LikedComment{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *relationRepository) RemoveLikesForPost(ctx context.Context, postID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Delete(&models.LikedPost{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *relationRepository) RemoveLikesForComments(ctx context.Context, commentIDs []uint) (int64, error) {
	if len(commentIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("comment_id IN ?", commentIDs).
		Delete(&models.LikedComment{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *relationRepository) GetLikedCommentIDs(ctx context.Context, userID uint, commentIDs []uint) ([]uint, error) {
	if len(commentIDs) == 0 {
		return nil, nil
	}
	var liked []uint
	err := r.db.WithContext(ctx).
		Model(&models.LikedComment{}).
		Where("user_id = ? AND comment_id IN ?", userID, commentIDs).
		Pluck("comment_id", &liked).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return liked, nil
}
