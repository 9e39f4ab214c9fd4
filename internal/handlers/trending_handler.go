package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/commune-app/backend/internal/feed"
)

type TrendingHandler struct {
	Trender *feed.Trender
}

// GET /tags/trending?days=7&limit=10
func (h *TrendingHandler) Get(c *fiber.Ctx) error {
	tags, err := h.Trender.TrendingTags(
		c.Context(),
		c.QueryInt("days", feed.DefaultTrendWindowDays),
		c.QueryInt("limit", feed.DefaultTrendLimit),
	)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"items": tags})
}
