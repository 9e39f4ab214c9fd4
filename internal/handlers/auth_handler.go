package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/commune-app/backend/dto"
	"github.com/commune-app/backend/internal/middleware"
	"github.com/commune-app/backend/internal/repository"
	"github.com/commune-app/backend/model"
)

const tokenTTL = 72 * time.Hour

type AuthHandler struct {
	Users  *repository.UserRepository
	Secret string
}

// POST /auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var body dto.RegisterRequest
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	body.Username = strings.TrimSpace(body.Username)
	if body.Username == "" || body.Email == "" || len(body.Password) < 8 {
		return badRequest(c, "username, email, and a password of at least 8 characters are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		return fail(c, err)
	}

	u := model.User{
		Username:     body.Username,
		Email:        body.Email,
		PasswordHash: string(hash),
		DisplayName:  body.DisplayName,
	}
	if err := h.Users.Create(c.Context(), &u); err != nil {
		return fail(c, err)
	}

	token, err := middleware.IssueToken(h.Secret, u.ID.Hex(), tokenTTL)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.AuthResponse{Token: token, User: &u})
}

// POST /auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var body dto.LoginRequest
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid body")
	}

	u, err := h.Users.FindByEmail(c.Context(), body.Email)
	if err != nil {
		// Same response for unknown email and wrong password.
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid credentials"})
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(body.Password)) != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid credentials"})
	}

	token, err := middleware.IssueToken(h.Secret, u.ID.Hex(), tokenTTL)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.AuthResponse{Token: token, User: u})
}

// GET /me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	uid, _ := middleware.UserIDFrom(c)
	u, err := h.Users.FindByID(c.Context(), uid)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(u)
}

// PATCH /me
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	uid, _ := middleware.UserIDFrom(c)
	var body dto.UpdateProfileRequest
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	u, err := h.Users.UpdateProfile(c.Context(), uid, body.DisplayName, body.Bio)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(u)
}
