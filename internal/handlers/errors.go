package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/commune-app/backend/dto"
	"github.com/commune-app/backend/internal/feed"
	"github.com/commune-app/backend/internal/repository"
)

// fail maps domain errors onto HTTP statuses. Store internals never reach
// the response body.
func fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: "forbidden"})
	case errors.Is(err, repository.ErrDuplicateUser),
		errors.Is(err, repository.ErrDuplicatePair):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, repository.ErrSelfConnection),
		errors.Is(err, repository.ErrBadTransition):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, feed.ErrStoreUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Error: "temporarily unavailable"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: msg})
}
