package router

import (
	"github.com/ManuelReschke/BookFox/app/controllers"
	"github.com/ManuelReschke/BookFox/internal/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	// Processor webhooks and cron triggers carry their own authentication and
	// must not sit behind the public rate limiter: dropped deliveries would
	// only come back as retries.
	internal := app.Group("/api/internal")
	internal.Post("/payments/webhook", controllers.HandlePaymentWebhook)
	internal.Post("/cron/reap-pending-bookings", middleware.CronAuthMiddleware(), controllers.HandleCronReapPendingBookings)
	internal.Post("/accounts/provision", middleware.ProvisioningAuthMiddleware(), controllers.HandleProvisionAccount)

	api := app.Group("/api", limiter.New())

	// API v1 routes
	v1 := api.Group("/v1")

	// Public booking flow
	v1.Post("/shops/:slug/bookings", controllers.HandleCreateBooking)
	v1.Get("/bookings/:reference", controllers.HandleGetBooking)
	v1.Get("/push/key", controllers.HandleGetVapidPublicKey)

	// Session-authenticated routes
	authed := v1.Group("", middleware.RequireAPISessionAuth)
	authed.Post("/push/subscribe", controllers.HandlePushSubscribe)
	authed.Post("/push/unsubscribe", controllers.HandlePushUnsubscribe)
	authed.Get("/notifications", controllers.HandleListNotifications)
	authed.Post("/notifications/:id/read", controllers.HandleMarkNotificationRead)
	authed.Post("/notifications/read-all", controllers.HandleMarkAllNotificationsRead)
	authed.Get("/billing/status", controllers.HandleBillingStatus)
	authed.Post("/billing/subscription", controllers.HandleRegisterSubscription)

	// Paid shop features additionally require an entitled account
	authed.Get("/shop/bookings", middleware.RequireAPIEntitled, controllers.HandleListShopBookings)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
