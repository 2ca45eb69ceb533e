package controllers

import (
	"errors"
	"log"
	"time"

	"github.com/ManuelReschke/BookFox/app/models"
	"github.com/ManuelReschke/BookFox/internal/pkg/usercontext"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateBookingRequest is the payload of the public booking wizard.
type CreateBookingRequest struct {
	CustomerName  string `json:"customer_name" validate:"required,min=2,max=150"`
	CustomerEmail string `json:"customer_email" validate:"omitempty,email,max=200"`
	ServiceName   string `json:"service_name" validate:"required,min=2,max=150"`
	StartsAt      string `json:"starts_at" validate:"required"`
	PriceCents    int64  `json:"price_cents" validate:"gte=0"`
}

// HandleCreateBooking creates an appointment in PENDING/PENDING state. The
// payment webhook confirms it; the cron reaper cancels it if no payment
// arrives within the pending window.
func HandleCreateBooking(c *fiber.Ctx) error {
	shop, err := getShopRepo().GetBySlug(c.Params("slug"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "shop_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "shop_lookup_failed"})
	}

	var req CreateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}
	if err := validator.New().Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": "starts_at must be RFC3339"})
	}

	paymentStatus := models.BookingPaymentPending
	booking := &models.Booking{
		Reference:     uuid.New().String(),
		ShopID:        shop.ID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		ServiceName:   req.ServiceName,
		StartsAt:      startsAt,
		PriceCents:    req.PriceCents,
		Status:        models.BookingStatusPending,
		PaymentStatus: &paymentStatus,
	}
	if err := getBookingRepo().Create(booking); err != nil {
		log.Printf("booking: create failed for shop %d: %v", shop.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "booking_create_failed"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"ok":        true,
		"reference": booking.Reference,
		"status":    booking.Status,
	})
}

// HandleGetBooking returns the state of one booking by its public reference.
// The customer polls this after checkout to see the payment land.
func HandleGetBooking(c *fiber.Ctx) error {
	booking, err := getBookingRepo().GetByReference(c.Params("reference"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "booking_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "booking_lookup_failed"})
	}

	return c.JSON(fiber.Map{
		"reference":      booking.Reference,
		"status":         booking.Status,
		"payment_status": booking.PaymentStatus,
		"service_name":   booking.ServiceName,
		"starts_at":      booking.StartsAt,
		"price_cents":    booking.PriceCents,
	})
}

// HandleListShopBookings returns the owner's bookings, newest first.
func HandleListShopBookings(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if userCtx.ShopID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "no_shop"})
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", 25)
	if limit < 1 || limit > 100 {
		limit = 25
	}

	bookings, err := getBookingRepo().GetByShopID(userCtx.ShopID, (page-1)*limit, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "booking_list_failed"})
	}
	total, err := getBookingRepo().CountByShopID(userCtx.ShopID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "booking_list_failed"})
	}

	return c.JSON(fiber.Map{
		"bookings": bookings,
		"page":     page,
		"limit":    limit,
		"total":    total,
	})
}
