package server

import (
	"io"
	"mime/multipart"

	"simplesocial/internal/models"
	"simplesocial/internal/service"

	"github.com/gofiber/fiber/v2"
)

// readUploads loads multipart files into memory for picture processing.
func readUploads(files []*multipart.FileHeader) ([]service.PictureUpload, error) {
	uploads := make([]service.PictureUpload, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		content, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, service.PictureUpload{
			Content:     content,
			ContentType: fh.Header.Get("Content-Type"),
		})
	}
	return uploads, nil
}

// CreatePost handles POST /api/posts. It accepts either a JSON body with a
// description, or a multipart form with a description field and up to five
// picture files.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var description string
	var uploads []service.PictureUpload

	if form, err := c.MultipartForm(); err == nil && form != nil {
		if vals := form.Value["description"]; len(vals) > 0 {
			description = vals[0]
		}
		uploads, err = readUploads(form.File["pictures"])
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Could not read uploaded file"))
		}
	} else {
		var req struct {
			Description string `json:"description"`
		}
		if err := c.BodyParser(&req); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
		description = req.Description
	}

	post, err := s.postService.CreatePost(c.UserContext(), userID, description, uploads)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPosts handles GET /api/posts?sort=new|old|top
func (s *Server) GetPosts(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	sort := c.Query("sort", "new")

	posts, err := s.postService.ListPosts(c.UserContext(), p.Limit, p.Offset, currentUserID(c), sort)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(posts)
}

// GetFeed handles GET /api/posts/feed: recent posts from followed users.
func (s *Server) GetFeed(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	p := parsePagination(c, 20)

	posts, err := s.postService.ListFeed(c.UserContext(), userID, p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(post)
}

// TogglePostLike handles POST /api/posts/:id/like. The same endpoint likes
// and unlikes; the response reports the resulting state.
func (s *Server) TogglePostLike(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actorID := c.Locals("userID").(uint)

	result, err := s.relationService.TogglePostLike(c.UserContext(), actorID, postID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"liked": result.Active,
		"likes": result.Count,
	})
}

// AddPostPicture handles POST /api/posts/:id/pictures
func (s *Server) AddPostPicture(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := c.Locals("userID").(uint)

	fh, err := c.FormFile("picture")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Picture file is required"))
	}
	uploads, err := readUploads([]*multipart.FileHeader{fh})
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Could not read uploaded file"))
	}

	picture, err := s.postService.AddPicture(c.UserContext(), userID, postID, uploads[0])
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(picture)
}

// GetPostPicture handles GET /api/posts/:id/pictures/:pictureId. With
// ?size=thumbnail it serves the small webp variant.
func (s *Server) GetPostPicture(c *fiber.Ctx) error {
	if _, err := s.parseID(c, "id"); err != nil {
		return nil
	}
	pictureID, err := s.parseID(c, "pictureId")
	if err != nil {
		return nil
	}

	picture, err := s.postService.GetPicture(c.UserContext(), pictureID)
	if err != nil {
		return respondServiceError(c, err)
	}

	if c.Query("size") == "thumbnail" && len(picture.Thumbnail) > 0 {
		c.Set(fiber.HeaderContentType, "image/webp")
		return c.Send(picture.Thumbnail)
	}
	c.Set(fiber.HeaderContentType, picture.ContentType)
	return c.Send(picture.Data)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actorID := c.Locals("userID").(uint)

	if err := s.postService.DeletePost(c.UserContext(), actorID, postID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted"})
}
