package middleware

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ManuelReschke/BookFox/app/models"
	"github.com/ManuelReschke/BookFox/app/repository"
	"github.com/ManuelReschke/BookFox/internal/pkg/constants"
	"github.com/ManuelReschke/BookFox/internal/pkg/database"
	"github.com/ManuelReschke/BookFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/BookFox/internal/pkg/usercontext"
)

// RequireEntitled gates paid shop features behind the entitlement check.
// It reads the freshest trial and subscription state on every request so a
// webhook landing a second earlier is already reflected. Locked-out owners
// land on the billing page; nobody gets a stale cached verdict.
func RequireEntitled(c *fiber.Ctx) error {
	entitled, err := currentEntitlement(c)
	if err != nil {
		log.Printf("entitlement check failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
	}
	if !entitled {
		return c.Redirect(constants.BillingRoute, fiber.StatusSeeOther)
	}
	return c.Next()
}

// RequireAPIEntitled is the JSON variant for API routes.
func RequireAPIEntitled(c *fiber.Ctx) error {
	entitled, err := currentEntitlement(c)
	if err != nil {
		log.Printf("entitlement check failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "internal_server_error",
			"message": "entitlement check failed",
		})
	}
	if !entitled {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "subscription_required",
			"message": "trial ended and no active subscription",
		})
	}
	return c.Next()
}

func currentEntitlement(c *fiber.Ctx) (bool, error) {
	ctx := usercontext.GetUserContext(c)
	if !ctx.IsLoggedIn {
		return false, nil
	}

	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(ctx.UserID)
	if err != nil {
		return false, err
	}

	var sub *models.Subscription
	if ctx.ShopID != 0 {
		var row models.Subscription
		err := database.GetDB().Where("shop_id = ?", ctx.ShopID).First(&row).Error
		switch {
		case err == nil:
			sub = &row
		case errors.Is(err, gorm.ErrRecordNotFound):
			// Trial-only account; the engine handles the nil subscription.
		default:
			return false, err
		}
	}

	return entitlements.HasAccess(user.TrialEndsAt, sub, time.Now()), nil
}
