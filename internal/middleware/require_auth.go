package middleware

import (
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// RequireAuth rejects requests that did not authenticate upstream.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := UserIDFrom(c); !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}
		return c.Next()
	}
}

// UserIDFrom reads the authenticated user id set by JWTUserID.
func UserIDFrom(c *fiber.Ctx) (bson.ObjectID, bool) {
	v := c.Locals("user_id")
	s, ok := v.(string)
	if !ok || s == "" {
		return bson.NilObjectID, false
	}
	oid, err := bson.ObjectIDFromHex(s)
	if err != nil {
		return bson.NilObjectID, false
	}
	return oid, true
}
