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

// PictureUpload is one raw uploaded file before processing.
type PictureUpload struct {
	Content     []byte
	ContentType string
}

// PostService implements post CRUD and the post deletion cascade.
type PostService struct {
	db     *gorm.DB
	posts  repository.PostRepository
	users  repository.UserRepository
	images *ImageService
}

// NewPostService returns a new PostService.
func NewPostService(db *gorm.DB, images *ImageService) *PostService {
	return &PostService{
		db:     db,
		posts:  repository.NewPostRepository(db),
		users:  repository.NewUserRepository(db),
		images: images,
	}
}

// CreatePost creates a post with up to MaxPicturesPerParent pictures. The
// post row and its pictures are written in one transaction.
func (s *PostService) CreatePost(ctx context.Context, userID uint, description string, uploads []PictureUpload) (*models.Post, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, models.NewValidationError("Description is required")
	}
	if len(description) > 10000 {
		return nil, models.NewValidationError("Description too long")
	}
	if len(uploads) > models.MaxPicturesPerParent {
		return nil, models.NewValidationError("Too many pictures")
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

	post := &models.Post{
		Description: description,
		UserID:      userID,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		posts := repository.NewPostRepository(tx)
		pictures := repository.NewPictureRepository(tx)

		if err := posts.Create(ctx, post); err != nil {
			return err
		}
		for _, pic := range processed {
			record := &models.PostPicture{
				PostID:      post.ID,
				Data:        pic.Data,
				Thumbnail:   pic.Thumbnail,
				ContentType: pic.ContentType,
				UploadedAt:  time.Now().UTC(),
			}
			if err := pictures.AddPostPicture(ctx, record); err != nil {
				return err
			}
			post.Pictures = append(post.Pictures, *record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "post created",
		slog.Any("post_id", post.ID),
		slog.Any("user_id", userID),
		slog.Int("pictures", len(processed)),
	)
	return post, nil
}

// AddPicture attaches another picture to an existing post, enforcing the
// per-post cap and ownership.
func (s *PostService) AddPicture(ctx context.Context, userID, postID uint, upload PictureUpload) (*models.PostPicture, error) {
	post, err := s.posts.GetByID(ctx, postID, 0)
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, models.NewUnauthorizedError("Cannot modify another user's post")
	}

	pic, err := s.images.Process(upload.Content, upload.ContentType)
	if err != nil {
		return nil, err
	}

	var record *models.PostPicture
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pictures := repository.NewPictureRepository(tx)
		count, err := pictures.CountByPost(ctx, postID)
		if err != nil {
			return err
		}
		if count >= models.MaxPicturesPerParent {
			return models.NewValidationError("Picture limit reached")
		}
		record = &models.PostPicture{
			PostID:      postID,
			Data:        pic.Data,
			Thumbnail:   pic.Thumbnail,
			ContentType: pic.ContentType,
			UploadedAt:  time.Now().UTC(),
		}
		return pictures.AddPostPicture(ctx, record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// GetPost returns a post with its author, comment count and the caller's
// liked flag.
func (s *PostService) GetPost(ctx context.Context, postID, currentUserID uint) (*models.Post, error) {
	return s.posts.GetByID(ctx, postID, currentUserID)
}

// GetPicture returns one stored post picture.
func (s *PostService) GetPicture(ctx context.Context, pictureID uint) (*models.PostPicture, error) {
	return repository.NewPictureRepository(s.db).GetPostPicture(ctx, pictureID)
}

// ListPosts returns a page of all posts, ordered by the given sort name.
func (s *PostService) ListPosts(ctx context.Context, limit, offset int, currentUserID uint, sort string) ([]*models.Post, error) {
	return s.posts.List(ctx, limit, offset, currentUserID, sort)
}

// ListUserPosts returns a page of one user's posts.
func (s *PostService) ListUserPosts(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.posts.GetByUserID(ctx, userID, limit, offset, currentUserID)
}

// ListFeed returns recent posts from users the reader follows.
func (s *PostService) ListFeed(ctx context.Context, readerID uint, limit, offset int) ([]*models.Post, error) {
	return s.posts.ListFeed(ctx, readerID, limit, offset)
}

// DeletePost removes a post with its comments, pictures and like edges in
// one transaction. The caller must own the post or be an admin.
func (s *PostService) DeletePost(ctx context.Context, actorID, postID uint) error {
	post, err := s.posts.GetByID(ctx, postID, 0)
	if err != nil {
		return err
	}
	if post.UserID != actorID {
		actor, err := s.users.GetByID(ctx, actorID)
		if err != nil {
			return err
		}
		if !actor.IsAdmin {
			return models.NewUnauthorizedError("Cannot delete another user's post")
		}
	}

	var casc *cascader
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		casc = newCascader(tx)
		// Re-check under lock; the post may have raced away.
		if _, err := casc.posts.GetByIDForUpdate(ctx, postID); err != nil {
			return err
		}
		return casc.deletePost(ctx, postID)
	})
	if err != nil {
		return err
	}

	casc.flushMetrics("post")
	middleware.Logger.InfoContext(ctx, "post deleted",
		slog.Any("post_id", postID),
		slog.Any("actor_id", actorID),
		slog.Any("rows_removed", casc.removed),
	)
	return nil
}
