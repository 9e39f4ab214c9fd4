package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/commune-app/backend/internal/middleware"
	"github.com/commune-app/backend/internal/repository"
)

type LikeHandler struct {
	Posts *repository.PostRepository
}

// PUT /posts/:postId/like
func (h *LikeHandler) Like(c *fiber.Ctx) error {
	uid, _ := middleware.UserIDFrom(c)
	postID, err := pathID(c, "postId")
	if err != nil {
		return err
	}
	if err := h.Posts.Like(c.Context(), postID, uid); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"postId": postID.Hex(), "isLiked": true})
}

// DELETE /posts/:postId/like
func (h *LikeHandler) Unlike(c *fiber.Ctx) error {
	uid, _ := middleware.UserIDFrom(c)
	postID, err := pathID(c, "postId")
	if err != nil {
		return err
	}
	if err := h.Posts.Unlike(c.Context(), postID, uid); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"postId": postID.Hex(), "isLiked": false})
}
