package server

import (
	"github.com/gofiber/fiber/v2"
)

// PromoteToAdmin handles POST /api/admin/users/:id/promote
func (s *Server) PromoteToAdmin(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actorID := c.Locals("userID").(uint)

	if err := s.userService.SetAdmin(c.UserContext(), actorID, targetID, true); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User promoted to admin"})
}

// DemoteFromAdmin handles POST /api/admin/users/:id/demote
func (s *Server) DemoteFromAdmin(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actorID := c.Locals("userID").(uint)

	if err := s.userService.SetAdmin(c.UserContext(), actorID, targetID, false); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Admin rights revoked"})
}

// AdminDeleteUser handles DELETE /api/admin/users/:id. Runs the same full
// cascade as self-deletion.
func (s *Server) AdminDeleteUser(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actorID := c.Locals("userID").(uint)

	if err := s.userService.DeleteUser(c.UserContext(), actorID, targetID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User deleted"})
}
