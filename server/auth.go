package server

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// requireSession guards write endpoints with a bearer-token session lookup.
// The resolved user id is stored in c.Locals("userId").
func requireSession(sessions Sessions) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "missing bearer token"})
		}

		session, err := sessions.GetSession(c.Context(), token)
		if err != nil {
			log.WithFields(log.Fields{
				"error": err,
			}).Error("Error looking up session")
			return internalError(c)
		}
		if session == nil {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired token"})
		}

		c.Locals("userId", session.UserId)
		return c.Next()
	}
}
