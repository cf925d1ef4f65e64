package repository

import (
	"context"
	"errors"

	"simplesocial/internal/models"

	"gorm.io/gorm"
)

// PictureRepository stores binary picture payloads for posts and comments.
type PictureRepository interface {
	AddPostPicture(ctx context.Context, picture *models.PostPicture) error
	AddCommentPicture(ctx context.Context, picture *models.CommentPicture) error
	GetPostPicture(ctx context.Context, id uint) (*models.PostPicture, error)
	GetCommentPicture(ctx context.Context, id uint) (*models.CommentPicture, error)
	CountByPost(ctx context.Context, postID uint) (int64, error)
	CountByComment(ctx context.Context, commentID uint) (int64, error)
	DeleteByPost(ctx context.Context, postID uint) (int64, error)
	DeleteByComments(ctx context.Context, commentIDs []uint) (int64, error)
}

type pictureRepository struct {
	db *gorm.DB
}

// NewPictureRepository creates a new picture repository
func NewPictureRepository(db *gorm.DB) PictureRepository {
	return &pictureRepository{db: db}
}

func (r *pictureRepository) AddPostPicture(ctx context.Context, picture *models.PostPicture) error {
	if err := r.db.WithContext(ctx).Create(picture).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *pictureRepository) AddCommentPicture(ctx context.Context, picture *models.CommentPicture) error {
	if err := r.db.WithContext(ctx).Create(picture).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *pictureRepository) GetPostPicture(ctx context.Context, id uint) (*models.PostPicture, error) {
	var picture models.PostPicture
	if err := r.db.WithContext(ctx).First(&picture, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Picture", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &picture, nil
}

func (r *pictureRepository) GetCommentPicture(ctx context.Context, id uint) (*models.CommentPicture, error) {
	var picture models.CommentPicture
	if err := r.db.WithContext(ctx).First(&picture, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Picture", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &picture, nil
}

func (r *pictureRepository) CountByPost(ctx context.Context, postID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PostPicture{}).
		Where("post_id = ?", postID).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *pictureRepository) CountByComment(ctx context.Context, commentID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.CommentPicture{}).
		Where("comment_id = ?", commentID).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *pictureRepository) DeleteByPost(ctx context.Context, postID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Delete(&models.PostPicture{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *pictureRepository) DeleteByComments(ctx context.Context, commentIDs []uint) (int64, error) {
	if len(commentIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("comment_id IN ?", commentIDs).
		Delete(&models.CommentPicture{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}
