package middleware

import (
	"strconv"

	"github.com/ManuelReschke/BookFox/app/repository"
	"github.com/ManuelReschke/BookFox/internal/pkg/session"
	"github.com/ManuelReschke/BookFox/internal/pkg/usercontext"
	"github.com/gofiber/fiber/v2"
)

// UserContextMiddleware resolves the session into a UserContext once per
// request so controllers and guards never touch the session store directly.
func UserContextMiddleware(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		setAnonymousContext(c)
		return c.Next()
	}

	userID := sess.Get(usercontext.KeyUserID)
	if userID == nil {
		setAnonymousContext(c)
		return c.Next()
	}

	username := session.GetSessionValue(c, usercontext.KeyUsername)
	isAdmin := sess.Get(usercontext.KeyIsAdmin)

	userCtx := usercontext.UserContext{
		UserID:     userID.(uint),
		Username:   username,
		IsLoggedIn: true,
		IsAdmin:    isAdmin != nil && isAdmin.(bool),
		ShopID:     resolveShopID(c, userID.(uint)),
	}
	c.Locals("USER_CONTEXT", userCtx)

	c.Locals(usercontext.KeyFromProtected, true)
	c.Locals(usercontext.KeyUsername, username)
	c.Locals(usercontext.KeyUserID, userID.(uint))
	c.Locals(usercontext.KeyIsAdmin, userCtx.IsAdmin)

	return c.Next()
}

func setAnonymousContext(c *fiber.Ctx) {
	c.Locals("USER_CONTEXT", usercontext.UserContext{
		IsLoggedIn: false,
		IsAdmin:    false,
	})
	c.Locals(usercontext.KeyFromProtected, false)
	c.Locals(usercontext.KeyIsAdmin, false)
}

// resolveShopID finds the shop the user owns, session cache first, DB second.
// Lookup failures leave it at 0; the next request retries.
func resolveShopID(c *fiber.Ctx, userID uint) uint {
	if cached := session.GetSessionValue(c, usercontext.KeyShopID); cached != "" {
		if v, err := strconv.ParseUint(cached, 10, 64); err == nil {
			return uint(v)
		}
	}

	shop, err := repository.GetGlobalFactory().GetShopRepository().GetByOwnerUserID(userID)
	if err != nil {
		return 0
	}
	_ = session.SetSessionValue(c, usercontext.KeyShopID, strconv.FormatUint(uint64(shop.ID), 10))
	return shop.ID
}
