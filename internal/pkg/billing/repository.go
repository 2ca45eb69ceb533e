package billing

import (
	"time"

	"github.com/ManuelReschke/BookFox/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the billing service.
type Repository interface {
	GetSubscriptionByExternalID(provider, externalID string) (*models.Subscription, error)
	GetSubscriptionByShopID(shopID uint) (*models.Subscription, error)
	CreateSubscriptionIfAbsent(sub *models.Subscription) (bool, error)
	SetSubscriptionDiscount(subID uint, discountCodeID uint, priceCents int64) error
	ApplyStatusTransition(subID uint, status string, currentPeriodEnd *time.Time, rawPayload string, now time.Time) error
	CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
	DeleteWebhookEvent(id uint) error
	GetShopByID(shopID uint) (*models.Shop, error)
	CreateNotification(userID uint, notificationType, content string, referenceID uint) error
	LinkShopPaymentAccount(shopID uint, mpUserID, accessTokenEnc, refreshTokenEnc string, tokenExpiresAt *time.Time) error
	ConfirmBookingPayment(externalPaymentID, bookingRef string) (*models.Booking, bool, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetSubscriptionByExternalID(provider, externalID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("provider = ? AND external_id = ?", provider, externalID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) GetSubscriptionByShopID(shopID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("shop_id = ?", shopID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// CreateSubscriptionIfAbsent inserts the row unless the (provider, external id)
// pair already exists. The returned bool is true only for the insert that won,
// which is what gates discount redemption to exactly one creation.
func (r *gormRepository) CreateSubscriptionIfAbsent(sub *models.Subscription) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "external_id"},
		},
		DoNothing: true,
	}).Create(sub)
	if tx.Error != nil {
		return false, tx.Error
	}

	created := tx.RowsAffected > 0
	// Ensure the struct reflects the stored row after a conflict no-op.
	if err := r.db.Where("provider = ? AND external_id = ?", sub.Provider, sub.ExternalID).
		First(sub).Error; err != nil {
		return false, err
	}
	return created, nil
}

func (r *gormRepository) SetSubscriptionDiscount(subID uint, discountCodeID uint, priceCents int64) error {
	return r.db.Model(&models.Subscription{}).
		Where("id = ?", subID).
		Updates(map[string]interface{}{
			"discount_code_id": discountCodeID,
			"price_cents":      priceCents,
		}).Error
}

// ApplyStatusTransition writes the new status in a single UPDATE. Entering
// "pending" keeps an already-set pending_since (the retry clock must not reset
// on re-delivery); every other status clears it. Cancelled rows are terminal
// and excluded by the WHERE clause at write time.
func (r *gormRepository) ApplyStatusTransition(subID uint, status string, currentPeriodEnd *time.Time, rawPayload string, now time.Time) error {
	updates := map[string]interface{}{
		"status":           status,
		"raw_payload_json": rawPayload,
	}
	if currentPeriodEnd != nil {
		updates["current_period_end"] = currentPeriodEnd
	}
	if status == models.SubscriptionStatusPending {
		updates["pending_since"] = gorm.Expr("COALESCE(pending_since, ?)", now)
	} else {
		updates["pending_since"] = nil
	}

	return r.db.Model(&models.Subscription{}).
		Where("id = ? AND status <> ?", subID, models.SubscriptionStatusCancelled).
		Updates(updates).Error
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "request_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookEvent
	if err := r.db.Where("provider = ? AND request_id = ?", event.Provider, event.RequestID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

// DeleteWebhookEvent frees a delivery id after a retryable processing
// failure, so the processor's retry of the same delivery is not deduplicated
// away.
func (r *gormRepository) DeleteWebhookEvent(id uint) error {
	return r.db.Delete(&models.WebhookEvent{}, id).Error
}

func (r *gormRepository) GetShopByID(shopID uint) (*models.Shop, error) {
	var shop models.Shop
	if err := r.db.First(&shop, shopID).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *gormRepository) CreateNotification(userID uint, notificationType, content string, referenceID uint) error {
	return models.CreateNotification(r.db, userID, notificationType, content, referenceID)
}

func (r *gormRepository) LinkShopPaymentAccount(shopID uint, mpUserID, accessTokenEnc, refreshTokenEnc string, tokenExpiresAt *time.Time) error {
	return r.db.Model(&models.Shop{}).
		Where("id = ?", shopID).
		Updates(map[string]interface{}{
			"mp_user_id":           mpUserID,
			"mp_access_token_enc":  accessTokenEnc,
			"mp_refresh_token_enc": refreshTokenEnc,
			"mp_token_expires_at":  tokenExpiresAt,
		}).Error
}

// ConfirmBookingPayment marks a pending booking as paid and confirmed in one
// conditional UPDATE. The status guard means a booking the reaper already
// cancelled stays cancelled; the returned bool reports whether this write won.
func (r *gormRepository) ConfirmBookingPayment(externalPaymentID, bookingRef string) (*models.Booking, bool, error) {
	tx := r.db.Model(&models.Booking{}).
		Where("reference = ? AND status = ?", bookingRef, models.BookingStatusPending).
		Updates(map[string]interface{}{
			"status":              models.BookingStatusConfirmed,
			"payment_status":      models.BookingPaymentPaid,
			"external_payment_id": externalPaymentID,
		})
	if tx.Error != nil {
		return nil, false, tx.Error
	}

	var booking models.Booking
	if err := r.db.Where("reference = ?", bookingRef).First(&booking).Error; err != nil {
		return nil, false, err
	}
	return &booking, tx.RowsAffected > 0, nil
}
