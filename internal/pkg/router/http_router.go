package router

import (
	"github.com/ManuelReschke/BookFox/app/controllers"
	"github.com/ManuelReschke/BookFox/internal/pkg/constants"
	"github.com/ManuelReschke/BookFox/internal/pkg/middleware"
	"github.com/ManuelReschke/BookFox/internal/pkg/session"

	"github.com/gofiber/fiber/v2"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	app.Get(constants.PublicRoute, controllers.HandleHome)

	// Billing: status page, processor account link and cancellation. The
	// callback keeps its own CSRF handling, the routes only require a login.
	billing := app.Group(constants.BillingRoute, middleware.RequireAuth)
	billing.Get("/", controllers.HandleBillingStatus)
	billing.Get("/connect", controllers.HandleBillingConnect)
	billing.Get("/connect/callback", controllers.HandleBillingConnectCallback)
	billing.Post("/cancel", controllers.HandleBillingCancel)

	// Paid features sit behind the entitlement guard.
	app.Get(constants.DashboardRoute, middleware.RequireAuth, middleware.RequireEntitled, controllers.HandleDashboard)

	// Promo code administration, admins only.
	admin := app.Group("/admin", middleware.RequireAuth, middleware.RequireAdmin)
	admin.Get("/discount-codes", controllers.HandleAdminListDiscountCodes)
	admin.Post("/discount-codes", controllers.HandleAdminCreateDiscountCode)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
