package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/ManuelReschke/BookFox/app/models"
	"github.com/ManuelReschke/BookFox/internal/pkg/discount"
	"github.com/ManuelReschke/BookFox/internal/pkg/env"
	"github.com/ManuelReschke/BookFox/internal/pkg/push"
	"gorm.io/gorm"
)

// Webhook topics the processor sends. Everything else is acknowledged and
// ignored.
const (
	TopicPreapproval = "preapproval"
	TopicPayment     = "payment"
)

var (
	// ErrUnknownSubscription marks a preapproval webhook whose resource has no
	// local subscription row. Acknowledged, not retried.
	ErrUnknownSubscription = errors.New("no local subscription for processor resource")
	// ErrUnknownBooking marks a payment webhook whose external reference
	// matches no booking. Acknowledged, not retried.
	ErrUnknownBooking = errors.New("no local booking for processor payment")
)

// DiscountLedger is the slice of the discount ledger the reconciler uses.
type DiscountLedger interface {
	Redeem(ctx context.Context, code string, now time.Time) (*discount.Redemption, error)
	Release(ctx context.Context, codeID uint) error
}

// Service reconciles externally-reported processor state into local
// subscription and booking state. It owns every write to the subscription
// table; all other components read only.
type Service struct {
	repo          Repository
	ledger        DiscountLedger
	processor     ProcessorClient
	notifier      Notifier
	webhookSecret string

	// Now is the clock; tests override it.
	Now func() time.Time
}

// NewService creates a reconciler from injected collaborators. notifier may
// be nil.
func NewService(repo Repository, ledger DiscountLedger, processor ProcessorClient, notifier Notifier, webhookSecret string) *Service {
	return &Service{
		repo:          repo,
		ledger:        ledger,
		processor:     processor,
		notifier:      notifier,
		webhookSecret: webhookSecret,
		Now:           time.Now,
	}
}

// NewServiceFromDB wires the production reconciler from a GORM handle and the
// environment.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(
		NewRepository(db),
		discount.NewLedgerFromDB(db),
		NewMercadoPagoClientFromEnv(),
		push.NewFanoutFromDB(db),
		env.GetEnv("MP_WEBHOOK_SECRET", ""),
	)
}

// HandleWebhook runs one delivery through verification, deduplication and
// reconciliation. A signature failure mutates nothing and reveals nothing; a
// duplicate delivery is acknowledged without touching state; only infra
// failures return an error so the processor retries.
func (s *Service) HandleWebhook(ctx context.Context, d WebhookDelivery) (*WebhookResult, error) {
	if !VerifyWebhookSignature(d.SignatureHeader, d.RequestID, d.ResourceID, s.webhookSecret) {
		log.Printf("billing: rejected webhook delivery (topic=%s)", strings.TrimSpace(d.Topic))
		return &WebhookResult{Unauthorized: true}, nil
	}

	requestID := strings.TrimSpace(d.RequestID)
	if requestID == "" {
		// Unreachable after verification, but dedup must never key on "".
		sum := sha256.Sum256([]byte(d.PayloadJSON))
		requestID = "hash:" + hex.EncodeToString(sum[:])
	}

	created, stored, err := s.repo.CreateWebhookEventIfNotExists(&models.WebhookEvent{
		Provider:    models.PaymentProviderMercadoPago,
		RequestID:   requestID,
		Topic:       strings.TrimSpace(d.Topic),
		ResourceID:  strings.TrimSpace(d.ResourceID),
		PayloadJSON: d.PayloadJSON,
	})
	if err != nil {
		return nil, err
	}
	if !created {
		return &WebhookResult{Duplicate: true}, nil
	}

	var procErr error
	result := &WebhookResult{}
	switch strings.ToLower(strings.TrimSpace(d.Topic)) {
	case TopicPreapproval, "subscription_preapproval":
		procErr = s.processPreapproval(ctx, d.ResourceID)
	case TopicPayment:
		procErr = s.processPayment(ctx, d.ResourceID)
	default:
		result.Ignored = true
	}

	if errors.Is(procErr, ErrUnknownSubscription) || errors.Is(procErr, ErrUnknownBooking) {
		result.Ignored = true
		s.markProcessed(stored.ID, procErr)
		return result, nil
	}
	if procErr != nil {
		// Retryable failure: drop the delivery record so the processor's
		// retry with the same request id is reprocessed instead of being
		// answered as a duplicate.
		if delErr := s.repo.DeleteWebhookEvent(stored.ID); delErr != nil {
			log.Printf("billing: cannot drop webhook event %d after retryable failure: %v", stored.ID, delErr)
		}
		return nil, procErr
	}
	s.markProcessed(stored.ID, nil)
	return result, nil
}

// markProcessed stamps the event row; acknowledged-but-ignored deliveries
// keep their reason in ProcessingError for the audit trail.
func (s *Service) markProcessed(eventID uint, procErr error) {
	msg := ""
	if procErr != nil {
		msg = procErr.Error()
	}
	if err := s.repo.MarkWebhookProcessed(eventID, msg); err != nil {
		log.Printf("billing: failed to mark webhook event %d processed: %v", eventID, err)
	}
}

func (s *Service) processPreapproval(ctx context.Context, resourceID string) error {
	pre, err := s.processor.GetPreapproval(ctx, resourceID)
	if err != nil {
		return err
	}

	raw, _ := json.Marshal(pre)
	_, err = s.ApplySubscriptionUpdate(ctx, SubscriptionUpdate{
		Provider:         models.PaymentProviderMercadoPago,
		ExternalID:       pre.ID,
		Status:           normalizeSubscriptionStatus(pre.Status),
		CurrentPeriodEnd: pre.NextPaymentDate,
		RawPayloadJSON:   string(raw),
	})
	return err
}

func (s *Service) processPayment(ctx context.Context, resourceID string) error {
	payment, err := s.processor.GetPayment(ctx, resourceID)
	if err != nil {
		return err
	}
	if payment.Status != PaymentStatusApproved {
		return nil
	}

	bookingRef := strings.TrimSpace(payment.ExternalReference)
	if bookingRef == "" {
		return ErrUnknownBooking
	}
	booking, won, err := s.repo.ConfirmBookingPayment(strconv.FormatInt(payment.ID, 10), bookingRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUnknownBooking
		}
		return err
	}
	if !won {
		// Already confirmed by an earlier delivery, or reaped before the
		// customer paid. Either way the row is settled; do not notify twice.
		return nil
	}

	content := fmt.Sprintf("Zahlung fuer Buchung %s eingegangen (%s)", booking.Reference, booking.ServiceName)
	s.notifyShopOwner(ctx, booking.ShopID, push.EventBookingPaid, content, booking.ID, map[string]any{
		"booking_reference": booking.Reference,
		"customer_name":     booking.CustomerName,
		"service_name":      booking.ServiceName,
	})
	return nil
}

// ApplySubscriptionUpdate moves the local subscription row to the reported
// status. Cancelled is terminal; transitions outside the state machine are
// logged and skipped, which keeps out-of-order re-deliveries harmless.
func (s *Service) ApplySubscriptionUpdate(ctx context.Context, in SubscriptionUpdate) (*models.Subscription, error) {
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	externalID := strings.TrimSpace(in.ExternalID)
	if provider == "" || externalID == "" {
		return nil, errors.New("provider and external_id are required")
	}

	sub, err := s.repo.GetSubscriptionByExternalID(provider, externalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownSubscription
		}
		return nil, err
	}
	if sub.IsTerminal() {
		return sub, nil
	}
	if !transitionAllowed(sub.Status, in.Status) {
		log.Printf("billing: skipping transition %s -> %s for subscription %d", sub.Status, in.Status, sub.ID)
		return sub, nil
	}

	if err := s.repo.ApplyStatusTransition(sub.ID, in.Status, in.CurrentPeriodEnd, in.RawPayloadJSON, s.Now()); err != nil {
		return nil, err
	}

	updated, err := s.repo.GetSubscriptionByShopID(sub.ShopID)
	if err != nil {
		return nil, err
	}
	if updated.Status != sub.Status {
		content := fmt.Sprintf("Abonnementstatus geaendert: %s", updated.Status)
		s.notifyShopOwner(ctx, updated.ShopID, push.EventNewNotification, content, updated.ID, map[string]any{
			"subscription_status": updated.Status,
		})
	}
	return updated, nil
}

// RegisterSubscription stores the shop's subscription right after checkout.
// The discount code, if any, is redeemed only when this call actually created
// the row, so retried checkouts cannot double-spend a code.
func (s *Service) RegisterSubscription(ctx context.Context, in SubscriptionCreateInput) (*models.Subscription, error) {
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		provider = models.PaymentProviderMercadoPago
	}
	externalID := strings.TrimSpace(in.ExternalID)
	if in.ShopID == 0 || externalID == "" {
		return nil, errors.New("shop_id and external_id are required")
	}

	sub := &models.Subscription{
		ShopID:     in.ShopID,
		Provider:   provider,
		ExternalID: externalID,
		Status:     models.SubscriptionStatusTrial,
		PriceCents: in.PriceCents,
	}
	created, err := s.repo.CreateSubscriptionIfAbsent(sub)
	if err != nil {
		return nil, err
	}

	if created && strings.TrimSpace(in.DiscountCode) != "" {
		red, err := s.ledger.Redeem(ctx, in.DiscountCode, s.Now())
		if err != nil {
			// The subscription stands at full price; the typed reason goes
			// back to the caller for the user-facing message.
			return sub, err
		}
		if err := s.repo.SetSubscriptionDiscount(sub.ID, red.CodeID, red.EffectivePriceCents); err != nil {
			// The redeemed use must go back to the pool: the retried checkout
			// hits the existing row and will never redeem again, so leaving
			// the counter bumped would burn a use of a capped code for good.
			if relErr := s.ledger.Release(ctx, red.CodeID); relErr != nil {
				log.Printf("billing: cannot return use of discount code %d after failed attach: %v", red.CodeID, relErr)
			}
			return nil, err
		}
		sub.DiscountCodeID = &red.CodeID
		sub.PriceCents = red.EffectivePriceCents
	}
	return sub, nil
}

// LinkPaymentAccount stores the processor credentials obtained in the OAuth
// callback. All four fields are written in one UPDATE so a failed exchange
// never leaves a half-linked shop.
func (s *Service) LinkPaymentAccount(ctx context.Context, shopID uint, mpUserID, accessTokenEnc, refreshTokenEnc string, tokenExpiresAt *time.Time) error {
	_ = ctx
	if shopID == 0 || strings.TrimSpace(mpUserID) == "" || strings.TrimSpace(accessTokenEnc) == "" {
		return errors.New("shop id, processor user id and access token are required")
	}
	return s.repo.LinkShopPaymentAccount(shopID, mpUserID, accessTokenEnc, refreshTokenEnc, tokenExpiresAt)
}

// CancelSubscription moves a shop's subscription to the terminal cancelled
// state, e.g. when the owner closes the account.
func (s *Service) CancelSubscription(ctx context.Context, shopID uint) (*models.Subscription, error) {
	sub, err := s.repo.GetSubscriptionByShopID(shopID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownSubscription
		}
		return nil, err
	}
	return s.ApplySubscriptionUpdate(ctx, SubscriptionUpdate{
		Provider:   sub.Provider,
		ExternalID: sub.ExternalID,
		Status:     models.SubscriptionStatusCancelled,
	})
}

// notifyShopOwner persists an in-app notification row and fans the event out
// to the owner's push endpoints. Both are best effort.
func (s *Service) notifyShopOwner(ctx context.Context, shopID uint, eventType, content string, referenceID uint, payload map[string]any) {
	shop, err := s.repo.GetShopByID(shopID)
	if err != nil {
		log.Printf("billing: cannot resolve shop %d for notification: %v", shopID, err)
		return
	}

	notificationType := "system"
	if eventType == push.EventBookingPaid {
		notificationType = eventType
	}
	if err := s.repo.CreateNotification(shop.OwnerUserID, notificationType, content, referenceID); err != nil {
		log.Printf("billing: cannot store notification for user %d: %v", shop.OwnerUserID, err)
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, shop.OwnerUserID, eventType, payload)
	}
}

// transitionAllowed encodes the subscription state machine. Identical states
// are allowed so re-delivered updates stay idempotent.
func transitionAllowed(from, to string) bool {
	if from == to {
		return true
	}
	if to == models.SubscriptionStatusCancelled {
		return true
	}
	switch from {
	case models.SubscriptionStatusTrial:
		return to == models.SubscriptionStatusAuthorized
	case models.SubscriptionStatusAuthorized:
		return to == models.SubscriptionStatusPending || to == models.SubscriptionStatusPaused
	case models.SubscriptionStatusPending:
		return to == models.SubscriptionStatusAuthorized || to == models.SubscriptionStatusPaused
	case models.SubscriptionStatusPaused:
		return to == models.SubscriptionStatusAuthorized
	default:
		return false
	}
}

func normalizeSubscriptionStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case models.SubscriptionStatusAuthorized:
		return models.SubscriptionStatusAuthorized
	case models.SubscriptionStatusPending:
		return models.SubscriptionStatusPending
	case models.SubscriptionStatusPaused:
		return models.SubscriptionStatusPaused
	case models.SubscriptionStatusCancelled, "canceled":
		return models.SubscriptionStatusCancelled
	default:
		return strings.ToLower(strings.TrimSpace(status))
	}
}
