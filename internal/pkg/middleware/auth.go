package middleware

import (
	"github.com/ManuelReschke/BookFox/internal/pkg/constants"
	icuser "github.com/ManuelReschke/BookFox/internal/pkg/usercontext"
	"github.com/gofiber/fiber/v2"
)

func sessionLoggedIn(c *fiber.Ctx) bool {
	if b, ok := c.Locals(icuser.KeyFromProtected).(bool); ok {
		return b
	}
	return false
}

// RequireAuth ensures a logged-in web session; redirects to /login if missing.
func RequireAuth(c *fiber.Ctx) error {
	if !sessionLoggedIn(c) {
		return c.Redirect(constants.LoginRoute, fiber.StatusSeeOther)
	}
	return c.Next()
}

// RequireAdmin ensures a logged-in admin; redirects otherwise.
func RequireAdmin(c *fiber.Ctx) error {
	if !sessionLoggedIn(c) {
		return c.Redirect(constants.LoginRoute, fiber.StatusSeeOther)
	}
	if isAdmin, ok := c.Locals(icuser.KeyIsAdmin).(bool); !ok || !isAdmin {
		return c.Redirect(constants.PublicRoute, fiber.StatusSeeOther)
	}
	return c.Next()
}

// RequireAPISessionAuth is the API variant of RequireAuth: JSON 401 instead
// of a redirect.
func RequireAPISessionAuth(c *fiber.Ctx) error {
	if !sessionLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}
	return c.Next()
}
