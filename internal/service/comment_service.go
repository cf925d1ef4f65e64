package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"simplesocial/internal/middleware"
	"simplesocial/internal/models"
	"simplesocial/internal/repository"

	"gorm.io/gorm"
)

// CommentService implements comment CRUD and the comment deletion cascade.
type CommentService struct {
	db       *gorm.DB
	comments repository.CommentRepository
	posts    repository.PostRepository
	users    repository.UserRepository
	images   *ImageService
}

// NewCommentService returns a new CommentService.
func NewCommentService(db *gorm.DB, images *ImageService) *CommentService {
	return &CommentService{
		db:       db,
		comments: repository.NewCommentRepository(db),
		posts:    repository.NewPostRepository(db),
		users:    repository.NewUserRepository(db),
		images:   images,
	}
}

// CreateComment creates a comment under a post, with up to
// MaxPicturesPerParent pictures, in one transaction.
func (s *CommentService) CreateComment(ctx context.Context, userID, postID uint, text string, uploads []PictureUpload) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.NewValidationError("Text is required")
	}
	if len(text) > 5000 {
		return nil, models.NewValidationError("Text too long")
	}
	if len(uploads) > models.MaxPicturesPerParent {
		return nil, models.NewValidationError("Too many pictures")
	}

	if _, err := s.posts.GetByID(ctx, postID, 0); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	processed := make([]*ProcessedPicture, 0, len(uploads))
	for _, u := range uploads {
		pic, err := s.images.Process(u.Content, u.ContentType)
		if err != nil {
			return nil, err
		}
		processed = append(processed, pic)
	}

	comment := &models.Comment{
		Text:   text,
		PostID: postID,
		UserID: userID,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		comments := repository.NewCommentRepository(tx)
		pictures := repository.NewPictureRepository(tx)

		if err := comments.Create(ctx, comment); err != nil {
			return err
		}
		for _, pic := range processed {
			record := &models.CommentPicture{
				CommentID:   comment.ID,
				Data:        pic.Data,
				Thumbnail:   pic.Thumbnail,
				ContentType: pic.ContentType,
				UploadedAt:  time.Now().UTC(),
			}
			if err := pictures.AddCommentPicture(ctx, record); err != nil {
				return err
			}
			comment.Pictures = append(comment.Pictures, *record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "comment created",
		slog.Any("comment_id", comment.ID),
		slog.Any("post_id", postID),
		slog.Any("user_id", userID),
	)
	return comment, nil
}

// GetComment returns a comment by id.
func (s *CommentService) GetComment(ctx context.Context, commentID uint) (*models.Comment, error) {
	return s.comments.GetByID(ctx, commentID)
}

// GetPicture returns one stored comment picture.
func (s *CommentService) GetPicture(ctx context.Context, pictureID uint) (*models.CommentPicture, error) {
	return repository.NewPictureRepository(s.db).GetCommentPicture(ctx, pictureID)
}

// ListComments returns the comments under a post with the caller's liked
// flags.
func (s *CommentService) ListComments(ctx context.Context, postID, currentUserID uint) ([]*models.Comment, error) {
	if _, err := s.posts.GetByID(ctx, postID, 0); err != nil {
		return nil, err
	}
	return s.comments.ListByPost(ctx, postID, currentUserID)
}

// DeleteComment removes a comment with its pictures and like edges in one
// transaction. The caller must own the comment, own the parent post, or be
// an admin.
func (s *CommentService) DeleteComment(ctx context.Context, actorID, commentID uint) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != actorID {
		post, err := s.posts.GetByID(ctx, comment.PostID, 0)
		if err != nil {
			return err
		}
		if post.UserID != actorID {
			actor, err := s.users.GetByID(ctx, actorID)
			if err != nil {
				return err
			}
			if !actor.IsAdmin {
				return models.NewUnauthorizedError("Cannot delete another user's comment")
			}
		}
	}

	var casc *cascader
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		casc = newCascader(tx)
		if _, err := casc.comments.GetByIDForUpdate(ctx, commentID); err != nil {
			return err
		}
		return casc.deleteComment(ctx, commentID)
	})
	if err != nil {
		return err
	}

	casc.flushMetrics("comment")
	middleware.Logger.InfoContext(ctx, "comment deleted",
		slog.Any("comment_id", commentID),
		slog.Any("actor_id", actorID),
	)
	return nil
}
