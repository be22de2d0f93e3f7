package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tasklink-app/tasklink-web/internal/models"
)

func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !State(c).Authenticated() {
			return fiber.ErrUnauthorized
		}
		return c.Next()
	}
}

func RequireRoles(allowed ...models.Role) fiber.Handler {
	allowedSet := map[models.Role]bool{}
	for _, r := range allowed {
		allowedSet[r] = true
	}

	return func(c *fiber.Ctx) error {
		st := State(c)
		if !st.Authenticated() {
			return fiber.ErrUnauthorized
		}
		if !allowedSet[st.User.Role] {
			return fiber.NewError(fiber.StatusForbidden, "forbidden: insufficient role")
		}
		return c.Next()
	}
}
