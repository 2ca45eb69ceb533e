package usercontext

import "github.com/gofiber/fiber/v2"

// UserContext is the per-request view of the logged-in user, resolved once by
// the UserContext middleware and read by controllers and guards.
type UserContext struct {
	UserID     uint   `json:"user_id"`
	Username   string `json:"username"`
	IsLoggedIn bool   `json:"is_logged_in"`
	IsAdmin    bool   `json:"is_admin"`
	ShopID     uint   `json:"shop_id"`
}

// GetUserContext returns the request's user context, or an anonymous context
// when none was set.
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx := c.Locals("USER_CONTEXT"); ctx != nil {
		return ctx.(UserContext)
	}
	return UserContext{IsLoggedIn: false, IsAdmin: false}
}

func IsLoggedIn(c *fiber.Ctx) bool {
	return GetUserContext(c).IsLoggedIn
}

func IsAdmin(c *fiber.Ctx) bool {
	return GetUserContext(c).IsAdmin
}

func GetUserID(c *fiber.Ctx) uint {
	return GetUserContext(c).UserID
}

func GetUsername(c *fiber.Ctx) string {
	return GetUserContext(c).Username
}

// GetShopID returns the shop the current user owns, or 0 if none.
func GetShopID(c *fiber.Ctx) uint {
	return GetUserContext(c).ShopID
}
