package controllers

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/ManuelReschke/BookFox/app/models"
	"github.com/ManuelReschke/BookFox/internal/pkg/billing"
	"github.com/ManuelReschke/BookFox/internal/pkg/cache"
	"github.com/ManuelReschke/BookFox/internal/pkg/constants"
	"github.com/ManuelReschke/BookFox/internal/pkg/database"
	"github.com/ManuelReschke/BookFox/internal/pkg/discount"
	"github.com/ManuelReschke/BookFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/BookFox/internal/pkg/security"
	"github.com/ManuelReschke/BookFox/internal/pkg/usercontext"
	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"
	"gorm.io/gorm"
)

const (
	mpOAuthCSRFCookie  = "mp_oauth_csrf"
	mpOAuthStatePrefix = "billing:oauth:state:"
	mpOAuthStateTTL    = 10 * time.Minute
)

// HandleBillingConnect starts the Mercado Pago account link for the current
// shop owner. The CSRF token lives in a scoped short-lived cookie AND in the
// cache; the callback must present both, so a leaked redirect URL alone cannot
// complete the flow.
func HandleBillingConnect(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Redirect(constants.LoginRoute, fiber.StatusSeeOther)
	}
	if userCtx.ShopID == 0 {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Kein Shop fuer dieses Konto gefunden"}).Redirect(constants.BillingRoute)
	}

	csrf, err := generateOAuthState(24)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "OAuth-Status konnte nicht erzeugt werden"}).Redirect(constants.BillingRoute)
	}
	if err := cache.Set(mpOAuthStatePrefix+csrf, strconv.FormatUint(uint64(userCtx.ShopID), 10), mpOAuthStateTTL); err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "OAuth-Status konnte nicht gespeichert werden"}).Redirect(constants.BillingRoute)
	}

	c.Cookie(&fiber.Cookie{
		Name:     mpOAuthCSRFCookie,
		Value:    csrf,
		Path:     constants.BillingConnectRoute,
		Expires:  time.Now().Add(mpOAuthStateTTL),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	state, err := billing.EncodeOAuthState(userCtx.ShopID, csrf)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "OAuth-Status konnte nicht erzeugt werden"}).Redirect(constants.BillingRoute)
	}

	client := billing.NewMercadoPagoClientFromEnv()
	url, err := client.AuthorizeURLWithState(state)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Mercado Pago OAuth ist nicht korrekt konfiguriert"}).Redirect(constants.BillingRoute)
	}

	return c.Redirect(url, fiber.StatusSeeOther)
}

// HandleBillingConnectCallback finishes the account link. Every check aborts
// before any write, so a failed exchange never leaves a half-linked shop.
func HandleBillingConnectCallback(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Redirect(constants.LoginRoute, fiber.StatusSeeOther)
	}

	cookieCSRF := strings.TrimSpace(c.Cookies(mpOAuthCSRFCookie))
	clearOAuthCSRFCookie(c)

	if oauthErr := strings.TrimSpace(c.Query("error")); oauthErr != "" {
		msg := c.Query("error_description", oauthErr)
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Mercado Pago OAuth fehlgeschlagen: " + msg}).Redirect(constants.BillingRoute)
	}

	state, err := billing.DecodeOAuthState(c.Query("state"))
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Ungueltiger OAuth-Status"}).Redirect(constants.BillingRoute)
	}
	if cookieCSRF == "" || cookieCSRF != state.CSRF {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Ungueltiger OAuth-Status (state mismatch)"}).Redirect(constants.BillingRoute)
	}

	// Server-side check: the token must still exist in the cache and must have
	// been issued for exactly this shop. GetDel burns it, so replaying the
	// callback URL fails even with the cookie intact.
	cachedShopID, err := cache.GetDel(mpOAuthStatePrefix + state.CSRF)
	if err != nil || cachedShopID != strconv.FormatUint(uint64(state.ShopID), 10) {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "OAuth-Status abgelaufen oder unbekannt"}).Redirect(constants.BillingRoute)
	}
	if state.ShopID != userCtx.ShopID {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "OAuth-Status gehoert zu einem anderen Shop"}).Redirect(constants.BillingRoute)
	}

	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "OAuth-Code fehlt"}).Redirect(constants.BillingRoute)
	}

	client := billing.NewMercadoPagoClientFromEnv()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	token, err := client.ExchangeCode(ctx, code)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Token-Austausch mit Mercado Pago fehlgeschlagen"}).Redirect(constants.BillingRoute)
	}

	accessTokenEnc, err := security.EncryptToken(token.AccessToken)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Token konnte nicht verschluesselt werden"}).Redirect(constants.BillingRoute)
	}
	refreshTokenEnc := ""
	if token.RefreshToken != "" {
		refreshTokenEnc, err = security.EncryptToken(token.RefreshToken)
		if err != nil {
			return flash.WithError(c, fiber.Map{"type": "error", "message": "Token konnte nicht verschluesselt werden"}).Redirect(constants.BillingRoute)
		}
	}

	var tokenExpiresAt *time.Time
	if token.ExpiresIn > 0 {
		t := time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
		tokenExpiresAt = &t
	}

	svc := billing.NewServiceFromDB(database.GetDB())
	if err := svc.LinkPaymentAccount(
		ctx,
		state.ShopID,
		strconv.FormatInt(token.UserID, 10),
		accessTokenEnc,
		refreshTokenEnc,
		tokenExpiresAt,
	); err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Mercado-Pago-Konto konnte nicht verknuepft werden"}).Redirect(constants.BillingRoute)
	}

	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": "Mercado Pago erfolgreich verbunden"}).Redirect(constants.BillingRoute)
}

// HandlePaymentWebhook receives Mercado Pago webhook deliveries. The billing
// service verifies, deduplicates and reconciles; this handler only maps the
// outcome to HTTP: 401 for a bad signature, 200 for everything handled or
// acknowledged, 500 only when a retry can help.
func HandlePaymentWebhook(c *fiber.Ctx) error {
	delivery := billing.WebhookDelivery{
		SignatureHeader: c.Get("x-signature"),
		RequestID:       c.Get("x-request-id"),
		Topic:           firstQueryValue(c, "type", "topic"),
		ResourceID:      firstQueryValue(c, "data.id", "id"),
		PayloadJSON:     string(c.BodyRaw()),
	}

	svc := billing.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	result, err := svc.HandleWebhook(ctx, delivery)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_processing_failed"})
	}
	if result.Unauthorized {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
	}
	if result.Duplicate {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "duplicate": true})
	}
	if result.Ignored {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}

// HandleRegisterSubscription stores the preapproval the owner just authorized
// at checkout, optionally redeeming a discount code.
func HandleRegisterSubscription(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if userCtx.ShopID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "no_shop", "message": "account owns no shop"})
	}

	var req struct {
		ExternalID   string `json:"external_id"`
		PriceCents   int64  `json:"price_cents"`
		DiscountCode string `json:"discount_code"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	svc := billing.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	sub, err := svc.RegisterSubscription(ctx, billing.SubscriptionCreateInput{
		ShopID:       userCtx.ShopID,
		Provider:     models.PaymentProviderMercadoPago,
		ExternalID:   req.ExternalID,
		PriceCents:   req.PriceCents,
		DiscountCode: req.DiscountCode,
	})
	if err != nil {
		if reason, ok := discountErrorReason(err); ok {
			// The subscription stands at full price; only the code failed.
			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"ok":                true,
				"subscription":      sub,
				"discount_rejected": true,
				"discount_reason":   reason,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "subscription_registration_failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "subscription": sub})
}

// HandleBillingCancel moves the shop's subscription to its terminal state.
func HandleBillingCancel(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if userCtx.ShopID == 0 {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Kein Shop fuer dieses Konto gefunden"}).Redirect(constants.BillingRoute)
	}

	svc := billing.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if _, err := svc.CancelSubscription(ctx, userCtx.ShopID); err != nil {
		if errors.Is(err, billing.ErrUnknownSubscription) {
			return flash.WithError(c, fiber.Map{"type": "error", "message": "Kein Abonnement vorhanden"}).Redirect(constants.BillingRoute)
		}
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Abonnement konnte nicht gekuendigt werden"}).Redirect(constants.BillingRoute)
	}

	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": "Abonnement gekuendigt"}).Redirect(constants.BillingRoute)
}

// HandleBillingStatus reports the current entitlement snapshot for the
// dashboard: trial end, subscription state and whether access is granted.
func HandleBillingStatus(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	user, err := getUserRepo().GetByID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "user_lookup_failed"})
	}

	var sub *models.Subscription
	if userCtx.ShopID != 0 {
		var row models.Subscription
		err := database.GetDB().Where("shop_id = ?", userCtx.ShopID).First(&row).Error
		if err == nil {
			sub = &row
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "subscription_lookup_failed"})
		}
	}

	now := time.Now()
	resp := fiber.Map{
		"has_access":      entitlements.HasAccess(user.TrialEndsAt, sub, now),
		"payment_failure": entitlements.IsPaymentFailure(sub, now),
		"trial_ends_at":   user.TrialEndsAt,
	}
	if sub != nil {
		resp["subscription_status"] = sub.Status
		resp["current_period_end"] = sub.CurrentPeriodEnd
		resp["pending_since"] = sub.PendingSince
		resp["price_cents"] = sub.PriceCents
	}
	return c.JSON(resp)
}

func discountErrorReason(err error) (string, bool) {
	switch {
	case errors.Is(err, discount.ErrNotFound):
		return "not_found", true
	case errors.Is(err, discount.ErrExpired):
		return "expired", true
	case errors.Is(err, discount.ErrNotYetValid):
		return "not_yet_valid", true
	case errors.Is(err, discount.ErrExhausted):
		return "exhausted", true
	default:
		return "", false
	}
}

func clearOAuthCSRFCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     mpOAuthCSRFCookie,
		Value:    "",
		Path:     constants.BillingConnectRoute,
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func generateOAuthState(size int) (string, error) {
	if size < 16 {
		size = 16
	}
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func firstQueryValue(c *fiber.Ctx, keys ...string) string {
	for _, k := range keys {
		v := strings.TrimSpace(c.Query(k))
		if v != "" {
			return v
		}
	}
	return ""
}
