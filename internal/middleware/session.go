package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tasklink-app/tasklink-web/internal/session"
)

const CookieName = "tl_sid"

// Session loads (and on first sight creates) the browser's session record and
// attaches it to the request. Resume re-validates persisted identities after
// a restart and clears anything stale.
func Session(m *session.Manager, maxAgeMin int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies(CookieName)
		if sid == "" {
			sid = m.NewID()
			c.Cookie(&fiber.Cookie{
				Name:     CookieName,
				Value:    sid,
				Path:     "/",
				HTTPOnly: true,
				Secure:   false,
				SameSite: "Lax",
				MaxAge:   maxAgeMin * 60,
			})
		}

		st, err := m.Resume(c.Context(), sid)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "session indisponible",
			})
		}

		c.Locals("sid", sid)
		c.Locals("sessionState", st)
		return c.Next()
	}
}

// SID returns the request's session id set by Session.
func SID(c *fiber.Ctx) string {
	sid, _ := c.Locals("sid").(string)
	return sid
}

// State returns the loaded session state, or an empty signed-out state.
func State(c *fiber.Ctx) *session.State {
	if st, ok := c.Locals("sessionState").(*session.State); ok && st != nil {
		return st
	}
	return &session.State{}
}
