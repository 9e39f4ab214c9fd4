package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/commune-app/backend/dto"
	"github.com/commune-app/backend/internal/middleware"
	"github.com/commune-app/backend/internal/repository"
)

type CommentHandler struct {
	Posts *repository.PostRepository
}

// POST /posts/:postId/comments
func (h *CommentHandler) Create(c *fiber.Ctx) error {
	uid, _ := middleware.UserIDFrom(c)
	postID, err := pathID(c, "postId")
	if err != nil {
		return err
	}

	var body dto.CreateCommentRequest
	if err := c.BodyParser(&body); err != nil || strings.TrimSpace(body.Text) == "" {
		return badRequest(c, "text is required")
	}

	comment, err := h.Posts.AddComment(c.Context(), postID, uid, body.Text)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// GET /posts/:postId/comments
func (h *CommentHandler) List(c *fiber.Ctx) error {
	postID, err := pathID(c, "postId")
	if err != nil {
		return err
	}
	post, err := h.Posts.GetByID(c.Context(), postID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"items": post.Comments})
}

// DELETE /posts/:postId/comments/:commentId
func (h *CommentHandler) Delete(c *fiber.Ctx) error {
	uid, _ := middleware.UserIDFrom(c)
	postID, err := pathID(c, "postId")
	if err != nil {
		return err
	}
	commentID, err := pathID(c, "commentId")
	if err != nil {
		return err
	}
	if err := h.Posts.DeleteComment(c.Context(), postID, commentID, uid); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
