package controllers

import (
	"time"

	"github.com/ManuelReschke/BookFox/internal/pkg/usercontext"
	"github.com/gofiber/fiber/v2"
)

// HandleHome is the public landing/health route.
func HandleHome(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"name":   "BookFox",
		"status": "ok",
	})
}

// HandleDashboard summarizes the owner's shop: upcoming appointments and how
// many bookings are still waiting for their payment. Sits behind the
// entitlement guard, so a locked-out owner lands on the billing page instead.
func HandleDashboard(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if userCtx.ShopID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "no_shop"})
	}

	upcoming, err := getBookingRepo().GetUpcoming(userCtx.ShopID, time.Now(), 10)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "dashboard_failed"})
	}
	pendingPayments, err := getBookingRepo().CountPendingPayments(userCtx.ShopID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "dashboard_failed"})
	}
	unread, err := getNotificationRepo().CountUnread(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "dashboard_failed"})
	}

	return c.JSON(fiber.Map{
		"shop_id":              userCtx.ShopID,
		"upcoming_bookings":    upcoming,
		"pending_payments":     pendingPayments,
		"unread_notifications": unread,
	})
}
