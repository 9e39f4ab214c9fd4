package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/commune-app/backend/dto"
	"github.com/commune-app/backend/internal/middleware"
	"github.com/commune-app/backend/internal/repository"
	"github.com/commune-app/backend/model"
)

type PostHandler struct {
	Posts *repository.PostRepository
}

func pathID(c *fiber.Ctx, name string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(c.Params(name))
	if err != nil {
		return bson.NilObjectID, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return oid, nil
}

// POST /posts
func (h *PostHandler) Create(c *fiber.Ctx) error {
	uid, _ := middleware.UserIDFrom(c)

	var body dto.CreatePostRequest
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	if strings.TrimSpace(body.Body) == "" {
		return badRequest(c, "body is required")
	}

	published := true
	if body.Published != nil {
		published = *body.Published
	}

	post := model.Post{
		UserID:    uid,
		Body:      body.Body,
		Tags:      body.Tags,
		Published: published,
	}
	if err := h.Posts.Create(c.Context(), &post); err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GET /posts/:postId
func (h *PostHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c, "postId")
	if err != nil {
		return err
	}
	post, err := h.Posts.GetByID(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	if !post.Published {
		// Drafts are visible to their author only.
		if uid, ok := middleware.UserIDFrom(c); !ok || uid != post.UserID {
			return fail(c, repository.ErrNotFound)
		}
	}
	return c.JSON(post)
}

// PATCH /posts/:postId
func (h *PostHandler) Update(c *fiber.Ctx) error {
	uid, _ := middleware.UserIDFrom(c)
	id, err := pathID(c, "postId")
	if err != nil {
		return err
	}

	var body dto.UpdatePostRequest
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid body")
	}

	post, err := h.Posts.Update(c.Context(), id, uid, body.Body, body.Tags, body.Published)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(post)
}

// DELETE /posts/:postId
func (h *PostHandler) Delete(c *fiber.Ctx) error {
	uid, _ := middleware.UserIDFrom(c)
	id, err := pathID(c, "postId")
	if err != nil {
		return err
	}
	if err := h.Posts.Delete(c.Context(), id, uid); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GET /users/:userId/posts
func (h *PostHandler) ListByAuthor(c *fiber.Ctx) error {
	author, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	items, err := h.Posts.ListByAuthor(c.Context(), author, int64(c.QueryInt("limit", 20)))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"items": items})
}

// GET /posts/search?q=
func (h *PostHandler) Search(c *fiber.Ctx) error {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		return badRequest(c, "q is required")
	}
	items, err := h.Posts.Search(c.Context(), q, int64(c.QueryInt("limit", 20)))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"items": items})
}

// GET /posts?tag=
func (h *PostHandler) ListByTag(c *fiber.Ctx) error {
	tag := strings.TrimSpace(c.Query("tag"))
	if tag == "" {
		return badRequest(c, "tag is required")
	}
	items, err := h.Posts.ListByTag(c.Context(), tag, int64(c.QueryInt("limit", 20)))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"items": items})
}
