package controllers

import (
	"strings"

	"github.com/ManuelReschke/BookFox/internal/pkg/database"
	"github.com/ManuelReschke/BookFox/internal/pkg/env"
	"github.com/ManuelReschke/BookFox/internal/pkg/push"
	"github.com/ManuelReschke/BookFox/internal/pkg/usercontext"
	"github.com/gofiber/fiber/v2"
)

// HandleGetVapidPublicKey hands the browser the key it needs to subscribe.
func HandleGetVapidPublicKey(c *fiber.Ctx) error {
	key := env.GetEnv("VAPID_PUBLIC_KEY", "")
	if key == "" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "push_not_configured"})
	}
	return c.JSON(fiber.Map{"public_key": key})
}

// HandlePushSubscribe stores or refreshes the browser's push endpoint for the
// logged-in user.
func HandlePushSubscribe(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req struct {
		Endpoint string `json:"endpoint"`
		Keys     struct {
			P256dh string `json:"p256dh"`
			Auth   string `json:"auth"`
		} `json:"keys"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}
	if strings.TrimSpace(req.Endpoint) == "" || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": "endpoint and keys are required"})
	}

	fanout := push.NewFanoutFromDB(database.GetDB())
	if err := fanout.Subscribe(userCtx.UserID, req.Endpoint, req.Keys.P256dh, req.Keys.Auth, string(c.Request().Header.UserAgent())); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "subscribe_failed"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true})
}

// HandlePushUnsubscribe drops a push endpoint.
func HandlePushUnsubscribe(c *fiber.Ctx) error {
	var req struct {
		Endpoint string `json:"endpoint"`
	}
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Endpoint) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	fanout := push.NewFanoutFromDB(database.GetDB())
	if err := fanout.Unsubscribe(req.Endpoint); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "unsubscribe_failed"})
	}
	return c.JSON(fiber.Map{"ok": true})
}
