package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/ManuelReschke/BookFox/app/models"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// CreateDiscountCodeRequest is the admin payload for a new promo code.
// Validity bounds come in as RFC3339 so the admin tooling stays timezone-exact.
type CreateDiscountCodeRequest struct {
	Code               string `json:"code" validate:"required,min=3,max=64"`
	OverridePriceCents int64  `json:"override_price_cents" validate:"gte=0"`
	DurationMonths     int    `json:"duration_months" validate:"required,gte=1,lte=36"`
	ValidFrom          string `json:"valid_from" validate:"required"`
	ValidUntil         string `json:"valid_until" validate:"required"`
	MaxUses            int    `json:"max_uses" validate:"required,gte=1"`
}

// HandleAdminCreateDiscountCode creates a capped promo code. Only admins reach
// this handler; the route group enforces that.
func HandleAdminCreateDiscountCode(c *fiber.Ctx) error {
	var req CreateDiscountCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}
	if err := validator.New().Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	validFrom, err := time.Parse(time.RFC3339, req.ValidFrom)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": "valid_from must be RFC3339"})
	}
	validUntil, err := time.Parse(time.RFC3339, req.ValidUntil)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": "valid_until must be RFC3339"})
	}
	if !validUntil.After(validFrom) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": "valid_until must be after valid_from"})
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	repo := getDiscountCodeRepo()
	if _, err := repo.GetByCode(code); err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "code_exists", "message": "Gutscheincode existiert bereits"})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}

	dc := &models.DiscountCode{
		Code:               code,
		OverridePriceCents: req.OverridePriceCents,
		DurationMonths:     req.DurationMonths,
		ValidFrom:          validFrom,
		ValidUntil:         validUntil,
		MaxUses:            req.MaxUses,
	}
	if err := repo.Create(dc); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}

	return c.Status(fiber.StatusCreated).JSON(dc)
}

// HandleAdminListDiscountCodes lists promo codes newest first, paginated.
func HandleAdminListDiscountCodes(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", 25)
	if limit < 1 || limit > 100 {
		limit = 25
	}

	repo := getDiscountCodeRepo()
	codes, err := repo.List((page-1)*limit, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}
	total, err := repo.Count()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}

	return c.JSON(fiber.Map{
		"codes": codes,
		"page":  page,
		"limit": limit,
		"total": total,
	})
}
