package controllers

import (
	"log"
	"time"

	"github.com/ManuelReschke/BookFox/internal/pkg/database"
	"github.com/ManuelReschke/BookFox/internal/pkg/reaper"
	"github.com/gofiber/fiber/v2"
)

// HandleCronReapPendingBookings cancels bookings whose payment never arrived.
// An external scheduler calls this; the endpoint does nothing on its own
// timer, so running several app instances cannot double-schedule the sweep.
func HandleCronReapPendingBookings(c *fiber.Ctx) error {
	now := time.Now()

	r := reaper.NewReaperFromDB(database.GetDB())
	reaped, err := r.ReapPendingBookings(c.Context(), now)
	if err != nil {
		log.Printf("cron: reaping pending bookings failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "internal_server_error",
			"message": "reaping pending bookings failed",
		})
	}

	if reaped > 0 {
		log.Printf("cron: reaped %d pending bookings", reaped)
	}
	return c.JSON(fiber.Map{
		"ok":        true,
		"reaped":    reaped,
		"timestamp": now.UTC().Format(time.RFC3339),
	})
}
