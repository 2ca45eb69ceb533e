package controllers

import (
	"errors"
	"log"
	"strings"

	"github.com/ManuelReschke/BookFox/app/models"
	"github.com/ManuelReschke/BookFox/internal/pkg/database"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// defaultTrialDays is how long a freshly provisioned account may use paid
// features before it needs a subscription.
const defaultTrialDays = 14

// ProvisionAccountRequest is the payload the identity provider sends when an
// account is created upstream.
type ProvisionAccountRequest struct {
	Name      string `json:"name" validate:"required,min=3,max=150"`
	Email     string `json:"email" validate:"required,email,min=5,max=200"`
	Role      string `json:"role" validate:"omitempty,oneof=user owner admin"`
	TrialDays int    `json:"trial_days" validate:"gte=0,lte=365"`
}

// HandleProvisionAccount mirrors an upstream account into the local user
// table and starts the trial clock. Provisioning is idempotent: an already
// known email returns the stored row unchanged, so a replayed call can never
// restart or extend a trial.
func HandleProvisionAccount(c *fiber.Ctx) error {
	var req ProvisionAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}
	if err := validator.New().Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if existing, err := getUserRepo().GetByEmail(email); err == nil {
		return c.JSON(fiber.Map{"ok": true, "created": false, "user": existing})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "user_lookup_failed"})
	}

	role := req.Role
	if role == "" {
		role = models.ROLE_OWNER
	}
	trialDays := req.TrialDays
	if trialDays == 0 {
		trialDays = defaultTrialDays
	}

	user, err := models.CreateUser(database.GetDB(), strings.TrimSpace(req.Name), email, role, trialDays)
	if err != nil {
		log.Printf("account: provisioning %s failed: %v", email, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "user_create_failed"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "created": true, "user": user})
}
