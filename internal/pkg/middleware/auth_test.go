package middleware

import (
	"net/http/httptest"
	"testing"

	icuser "github.com/ManuelReschke/BookFox/internal/pkg/usercontext"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newAuthTestApp maps test headers onto the locals the user-context
// middleware normally sets, so the guards can be exercised without a session
// store behind them.
func newAuthTestApp() *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(icuser.KeyFromProtected, c.Get("X-Test-Logged-In") == "1")
		c.Locals(icuser.KeyIsAdmin, c.Get("X-Test-Admin") == "1")
		return c.Next()
	})
	app.Get("/account", RequireAuth, func(c *fiber.Ctx) error {
		return c.SendString("account")
	})
	app.Get("/admin/codes", RequireAuth, RequireAdmin, func(c *fiber.Ctx) error {
		return c.SendString("codes")
	})
	return app
}

func TestRequireAuth_AnonymousRedirectsToLogin(t *testing.T) {
	app := newAuthTestApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/account", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestRequireAuth_LoggedInPasses(t *testing.T) {
	app := newAuthTestApp()

	req := httptest.NewRequest("GET", "/account", nil)
	req.Header.Set("X-Test-Logged-In", "1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireAdmin_AnonymousRedirectsToLogin(t *testing.T) {
	app := newAuthTestApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/admin/codes", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestRequireAdmin_NonAdminRedirectsHome(t *testing.T) {
	app := newAuthTestApp()

	req := httptest.NewRequest("GET", "/admin/codes", nil)
	req.Header.Set("X-Test-Logged-In", "1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestRequireAdmin_AdminPasses(t *testing.T) {
	app := newAuthTestApp()

	req := httptest.NewRequest("GET", "/admin/codes", nil)
	req.Header.Set("X-Test-Logged-In", "1")
	req.Header.Set("X-Test-Admin", "1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
