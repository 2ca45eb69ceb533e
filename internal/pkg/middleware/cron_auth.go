package middleware

import (
	"crypto/subtle"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/BookFox/internal/pkg/env"
)

// requireBearerSecret guards machine-to-machine endpoints with a shared
// bearer secret read from the environment. A missing secret is a deployment
// error and answers 500 so the calling system alerts; it must never fall
// open into an unauthenticated endpoint.
func requireBearerSecret(envKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		secret := strings.TrimSpace(env.GetEnv(envKey, ""))
		if secret == "" {
			log.Printf("internal auth: %s is not configured", envKey)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "internal_server_error",
				"message": "internal secret not configured",
			})
		}

		presented := extractBearerToken(c)
		if subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "unauthorized",
				"message": "invalid secret",
			})
		}

		return c.Next()
	}
}

// CronAuthMiddleware guards the cron endpoints with the scheduler's secret.
func CronAuthMiddleware() fiber.Handler {
	return requireBearerSecret("CRON_SECRET")
}

// ProvisioningAuthMiddleware guards the account-provisioning endpoint the
// upstream identity provider calls. It carries its own secret so neither
// system can impersonate the other.
func ProvisioningAuthMiddleware() fiber.Handler {
	return requireBearerSecret("PROVISIONING_SECRET")
}

func extractBearerToken(c *fiber.Ctx) string {
	auth := strings.TrimSpace(c.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
