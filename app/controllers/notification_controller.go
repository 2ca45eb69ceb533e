package controllers

import (
	"github.com/ManuelReschke/BookFox/internal/pkg/usercontext"
	"github.com/gofiber/fiber/v2"
)

// HandleListNotifications returns the user's in-app notifications.
func HandleListNotifications(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	notifications, err := getNotificationRepo().GetByUserID(userCtx.UserID, (page-1)*limit, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "notification_list_failed"})
	}
	unread, err := getNotificationRepo().CountUnread(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "notification_list_failed"})
	}

	return c.JSON(fiber.Map{
		"notifications": notifications,
		"unread":        unread,
		"page":          page,
		"limit":         limit,
	})
}

// HandleMarkNotificationRead marks one notification as read.
func HandleMarkNotificationRead(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id"})
	}

	if err := getNotificationRepo().MarkAsRead(uint(id), userCtx.UserID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "mark_read_failed"})
	}
	return c.JSON(fiber.Map{"ok": true})
}

// HandleMarkAllNotificationsRead marks all of the user's notifications as read.
func HandleMarkAllNotificationsRead(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	if err := getNotificationRepo().MarkAllAsRead(userCtx.UserID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "mark_read_failed"})
	}
	return c.JSON(fiber.Map{"ok": true})
}
