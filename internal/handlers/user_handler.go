package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/commune-app/backend/internal/repository"
)

type UserHandler struct {
	Users *repository.UserRepository
}

// GET /users/:userId
func (h *UserHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	u, err := h.Users.FindByID(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	// Public view: identity fields only.
	return c.JSON(fiber.Map{
		"id":          u.ID,
		"username":    u.Username,
		"displayName": u.DisplayName,
		"bio":         u.Bio,
		"createdAt":   u.CreatedAt,
	})
}
