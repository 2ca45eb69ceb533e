package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCronTestApp() *fiber.App {
	app := fiber.New()
	app.Post("/cron/run", CronAuthMiddleware(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
	return app
}

func TestCronAuth_UnconfiguredSecretFailsClosed(t *testing.T) {
	app := newCronTestApp()

	req := httptest.NewRequest("POST", "/cron/run", nil)
	req.Header.Set("Authorization", "Bearer anything")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode,
		"a missing secret must never fall open")
}

func TestCronAuth_WrongSecretRejected(t *testing.T) {
	t.Setenv("CRON_SECRET", "top-secret")
	app := newCronTestApp()

	req := httptest.NewRequest("POST", "/cron/run", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestCronAuth_MissingHeaderRejected(t *testing.T) {
	t.Setenv("CRON_SECRET", "top-secret")
	app := newCronTestApp()

	resp, err := app.Test(httptest.NewRequest("POST", "/cron/run", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestCronAuth_CorrectSecretAccepted(t *testing.T) {
	t.Setenv("CRON_SECRET", "top-secret")
	app := newCronTestApp()

	req := httptest.NewRequest("POST", "/cron/run", nil)
	req.Header.Set("Authorization", "Bearer top-secret")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func newProvisioningTestApp() *fiber.App {
	app := fiber.New()
	app.Post("/accounts/provision", ProvisioningAuthMiddleware(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
	return app
}

func TestProvisioningAuth_UnconfiguredSecretFailsClosed(t *testing.T) {
	app := newProvisioningTestApp()

	req := httptest.NewRequest("POST", "/accounts/provision", nil)
	req.Header.Set("Authorization", "Bearer anything")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode,
		"a missing secret must never fall open")
}

func TestProvisioningAuth_WrongSecretRejected(t *testing.T) {
	t.Setenv("PROVISIONING_SECRET", "prov-secret")
	app := newProvisioningTestApp()

	req := httptest.NewRequest("POST", "/accounts/provision", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProvisioningAuth_CorrectSecretAccepted(t *testing.T) {
	t.Setenv("PROVISIONING_SECRET", "prov-secret")
	app := newProvisioningTestApp()

	req := httptest.NewRequest("POST", "/accounts/provision", nil)
	req.Header.Set("Authorization", "Bearer prov-secret")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
