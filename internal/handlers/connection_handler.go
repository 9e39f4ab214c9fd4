package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/commune-app/backend/dto"
	"github.com/commune-app/backend/internal/middleware"
	"github.com/commune-app/backend/internal/repository"
	"github.com/commune-app/backend/model"
)

type ConnectionHandler struct {
	Conns *repository.ConnectionRepository
}

// POST /connections
func (h *ConnectionHandler) Request(c *fiber.Ctx) error {
	uid, _ := middleware.UserIDFrom(c)

	var body dto.ConnectionRequest
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	recipient, err := bson.ObjectIDFromHex(body.RecipientID)
	if err != nil {
		return badRequest(c, "invalid recipientId")
	}

	conn, err := h.Conns.Request(c.Context(), uid, recipient, body.Message)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(conn)
}

// POST /connections/:connectionId/respond
func (h *ConnectionHandler) Respond(c *fiber.Ctx) error {
	uid, _ := middleware.UserIDFrom(c)
	id, err := pathID(c, "connectionId")
	if err != nil {
		return err
	}

	var body dto.RespondConnectionRequest
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	status := model.ConnectionStatus(body.Status)
	switch status {
	case model.ConnectionAccepted, model.ConnectionDeclined, model.ConnectionBlocked:
	default:
		return badRequest(c, "status must be accepted, declined, or blocked")
	}

	conn, err := h.Conns.Respond(c.Context(), id, uid, status)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(conn)
}

// GET /connections?status=
func (h *ConnectionHandler) List(c *fiber.Ctx) error {
	uid, _ := middleware.UserIDFrom(c)

	status := model.ConnectionStatus(c.Query("status", string(model.ConnectionAccepted)))
	switch status {
	case model.ConnectionPending, model.ConnectionAccepted,
		model.ConnectionDeclined, model.ConnectionBlocked:
	default:
		return badRequest(c, "unknown status")
	}

	items, err := h.Conns.ListForUser(c.Context(), uid, status)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"items": items})
}

// DELETE /connections/:connectionId
func (h *ConnectionHandler) Remove(c *fiber.Ctx) error {
	uid, _ := middleware.UserIDFrom(c)
	id, err := pathID(c, "connectionId")
	if err != nil {
		return err
	}
	if err := h.Conns.Remove(c.Context(), id, uid); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
