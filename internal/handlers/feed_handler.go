package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/commune-app/backend/internal/feed"
	"github.com/commune-app/backend/internal/middleware"
)

type FeedHandler struct {
	Ranker *feed.Ranker
	Conns  feed.ConnectionStore
}

// GET /feed?page=1&pageSize=20&mode=latest
func (h *FeedHandler) Get(c *fiber.Ctx) error {
	uid, _ := middleware.UserIDFrom(c)

	viewer, err := feed.ResolveViewer(c.Context(), h.Conns, uid)
	if err != nil {
		return fail(c, err)
	}

	page, err := h.Ranker.Feed(
		c.Context(),
		viewer,
		c.QueryInt("page", 1),
		c.QueryInt("pageSize", feed.DefaultPageSize),
		feed.ParseMode(c.Query("mode")),
	)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(page)
}
