package server

import (
	"simplesocial/internal/models"
	"simplesocial/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateComment handles POST /api/posts/:id/comments. It accepts either a
// JSON body with a text field, or a multipart form with text and up to five
// picture files.
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := c.Locals("userID").(uint)

	var text string
	var uploads []service.PictureUpload

	if form, err := c.MultipartForm(); err == nil && form != nil {
		if vals := form.Value["text"]; len(vals) > 0 {
			text = vals[0]
		}
		uploads, err = readUploads(form.File["pictures"])
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Could not read uploaded file"))
		}
	} else {
		var req struct {
			Text string `json:"text"`
		}
		if err := c.BodyParser(&req); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
		text = req.Text
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), userID, postID, text, uploads)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// GetComments handles GET /api/posts/:id/comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	comments, err := s.commentService.ListComments(c.UserContext(), postID, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(comments)
}

// ToggleCommentLike handles POST /api/comments/:id/like
func (s *Server) ToggleCommentLike(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actorID := c.Locals("userID").(uint)

	result, err := s.relationService.ToggleCommentLike(c.UserContext(), actorID, commentID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"liked": result.Active,
		"likes": result.Count,
	})
}

// GetCommentPicture handles GET /api/comments/:id/pictures/:pictureId. With
// ?size=thumbnail it serves the small webp variant.
func (s *Server) GetCommentPicture(c *fiber.Ctx) error {
	if _, err := s.parseID(c, "id"); err != nil {
		return nil
	}
	pictureID, err := s.parseID(c, "pictureId")
	if err != nil {
		return nil
	}

	picture, err := s.commentService.GetPicture(c.UserContext(), pictureID)
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

// DeleteComment handles DELETE /api/comments/:id
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actorID := c.Locals("userID").(uint)

	if err := s.commentService.DeleteComment(c.UserContext(), actorID, commentID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Comment deleted"})
}
