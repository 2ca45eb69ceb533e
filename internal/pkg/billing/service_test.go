package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ManuelReschke/BookFox/app/models"
	"github.com/ManuelReschke/BookFox/internal/pkg/discount"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "whsec-test"

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// fakeRepository keeps everything in maps and mirrors the write-time guards
// of the GORM implementation (pending_since COALESCE, terminal exclusion,
// status-guarded booking confirm).
type fakeRepository struct {
	subs     map[string]*models.Subscription // keyed provider|external_id
	events   map[string]*models.WebhookEvent // keyed provider|request_id
	shops    map[uint]*models.Shop
	bookings map[string]*models.Booking // keyed reference

	nextID        uint
	nextEventID   uint
	discounts     []uint // subscription ids that received a discount
	notifications []*models.Notification

	failSetDiscount bool
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		subs:     make(map[string]*models.Subscription),
		events:   make(map[string]*models.WebhookEvent),
		shops:    make(map[uint]*models.Shop),
		bookings: make(map[string]*models.Booking),
	}
}

func subKey(provider, externalID string) string { return provider + "|" + externalID }

func (r *fakeRepository) GetSubscriptionByExternalID(provider, externalID string) (*models.Subscription, error) {
	if sub, ok := r.subs[subKey(provider, externalID)]; ok {
		copied := *sub
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepository) GetSubscriptionByShopID(shopID uint) (*models.Subscription, error) {
	for _, sub := range r.subs {
		if sub.ShopID == shopID {
			copied := *sub
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepository) CreateSubscriptionIfAbsent(sub *models.Subscription) (bool, error) {
	key := subKey(sub.Provider, sub.ExternalID)
	if existing, ok := r.subs[key]; ok {
		*sub = *existing
		return false, nil
	}
	r.nextID++
	sub.ID = r.nextID
	stored := *sub
	r.subs[key] = &stored
	return true, nil
}

func (r *fakeRepository) SetSubscriptionDiscount(subID uint, discountCodeID uint, priceCents int64) error {
	if r.failSetDiscount {
		return errors.New("update failed: connection reset")
	}
	for _, sub := range r.subs {
		if sub.ID == subID {
			sub.DiscountCodeID = &discountCodeID
			sub.PriceCents = priceCents
			r.discounts = append(r.discounts, subID)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeRepository) ApplyStatusTransition(subID uint, status string, currentPeriodEnd *time.Time, rawPayload string, now time.Time) error {
	for _, sub := range r.subs {
		if sub.ID != subID || sub.Status == models.SubscriptionStatusCancelled {
			continue
		}
		sub.Status = status
		sub.RawPayloadJSON = rawPayload
		if currentPeriodEnd != nil {
			sub.CurrentPeriodEnd = currentPeriodEnd
		}
		if status == models.SubscriptionStatusPending {
			if sub.PendingSince == nil {
				t := now
				sub.PendingSince = &t
			}
		} else {
			sub.PendingSince = nil
		}
		return nil
	}
	return nil
}

func (r *fakeRepository) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	key := event.Provider + "|" + event.RequestID
	if existing, ok := r.events[key]; ok {
		copied := *existing
		return false, &copied, nil
	}
	r.nextEventID++
	event.ID = r.nextEventID
	stored := *event
	r.events[key] = &stored
	copied := stored
	return true, &copied, nil
}

func (r *fakeRepository) DeleteWebhookEvent(id uint) error {
	for key, ev := range r.events {
		if ev.ID == id {
			delete(r.events, key)
		}
	}
	return nil
}

func (r *fakeRepository) MarkWebhookProcessed(id uint, processingError string) error {
	for _, ev := range r.events {
		if ev.ID == id {
			t := time.Now()
			ev.ProcessedAt = &t
			ev.ProcessingError = processingError
		}
	}
	return nil
}

func (r *fakeRepository) GetShopByID(shopID uint) (*models.Shop, error) {
	if shop, ok := r.shops[shopID]; ok {
		return shop, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepository) CreateNotification(userID uint, notificationType, content string, referenceID uint) error {
	r.notifications = append(r.notifications, &models.Notification{
		UserID:      userID,
		Type:        notificationType,
		Content:     content,
		ReferenceID: referenceID,
	})
	return nil
}

func (r *fakeRepository) LinkShopPaymentAccount(shopID uint, mpUserID, accessTokenEnc, refreshTokenEnc string, tokenExpiresAt *time.Time) error {
	shop, ok := r.shops[shopID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	shop.MPUserID = mpUserID
	shop.MPAccessTokenEnc = accessTokenEnc
	shop.MPRefreshTokenEnc = refreshTokenEnc
	shop.MPTokenExpiresAt = tokenExpiresAt
	return nil
}

func (r *fakeRepository) ConfirmBookingPayment(externalPaymentID, bookingRef string) (*models.Booking, bool, error) {
	booking, ok := r.bookings[bookingRef]
	if !ok {
		return nil, false, gorm.ErrRecordNotFound
	}
	if booking.Status != models.BookingStatusPending {
		copied := *booking
		return &copied, false, nil
	}
	paid := models.BookingPaymentPaid
	booking.Status = models.BookingStatusConfirmed
	booking.PaymentStatus = &paid
	booking.ExternalPaymentID = externalPaymentID
	copied := *booking
	return &copied, true, nil
}

type fakeProcessor struct {
	preapprovals map[string]*Preapproval
	payments     map[string]*Payment
	err          error
}

func (p *fakeProcessor) GetPreapproval(ctx context.Context, id string) (*Preapproval, error) {
	if p.err != nil {
		return nil, p.err
	}
	if pre, ok := p.preapprovals[id]; ok {
		return pre, nil
	}
	return nil, fmt.Errorf("processor API /preapproval/%s returned status 404", id)
}

func (p *fakeProcessor) GetPayment(ctx context.Context, id string) (*Payment, error) {
	if p.err != nil {
		return nil, p.err
	}
	if payment, ok := p.payments[id]; ok {
		return payment, nil
	}
	return nil, fmt.Errorf("processor API /v1/payments/%s returned status 404", id)
}

type notifierCall struct {
	userID    uint
	eventType string
}

type fakeNotifier struct {
	calls []notifierCall
}

func (n *fakeNotifier) Notify(ctx context.Context, userID uint, eventType string, payload map[string]any) {
	n.calls = append(n.calls, notifierCall{userID: userID, eventType: eventType})
}

type fakeLedger struct {
	redeemed int
	released int
	err      error
}

func (l *fakeLedger) Redeem(ctx context.Context, code string, now time.Time) (*discount.Redemption, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.redeemed++
	return &discount.Redemption{CodeID: 42, Code: code, EffectivePriceCents: 500, DurationMonths: 3}, nil
}

func (l *fakeLedger) Release(ctx context.Context, codeID uint) error {
	l.released++
	return nil
}

func newTestService(repo *fakeRepository, processor *fakeProcessor, notifier *fakeNotifier, ledger *fakeLedger) *Service {
	s := NewService(repo, ledger, processor, notifier, testSecret)
	s.Now = func() time.Time { return testNow }
	return s
}

func signedDelivery(topic, requestID, resourceID string) WebhookDelivery {
	ts := "1717245600"
	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", resourceID, requestID, ts)
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(manifest))
	return WebhookDelivery{
		SignatureHeader: fmt.Sprintf("ts=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil))),
		RequestID:       requestID,
		Topic:           topic,
		ResourceID:      resourceID,
		PayloadJSON:     fmt.Sprintf(`{"type":%q,"data":{"id":%q}}`, topic, resourceID),
	}
}

func seedSubscription(repo *fakeRepository, status string) *models.Subscription {
	periodEnd := testNow.Add(30 * 24 * time.Hour)
	sub := &models.Subscription{
		ID:               1,
		ShopID:           10,
		Provider:         models.PaymentProviderMercadoPago,
		ExternalID:       "pre-1",
		Status:           status,
		CurrentPeriodEnd: &periodEnd,
	}
	repo.nextID = 1
	repo.subs[subKey(sub.Provider, sub.ExternalID)] = sub
	repo.shops[10] = &models.Shop{ID: 10, OwnerUserID: 77, Name: "Fade Factory"}
	return sub
}

func TestHandleWebhook_RejectsForgedSignatureWithoutMutation(t *testing.T) {
	repo := newFakeRepository()
	seedSubscription(repo, models.SubscriptionStatusAuthorized)
	s := newTestService(repo, &fakeProcessor{}, &fakeNotifier{}, &fakeLedger{})

	d := signedDelivery(TopicPreapproval, "req-1", "pre-1")
	d.SignatureHeader = "ts=1717245600,v1=deadbeef"

	result, err := s.HandleWebhook(context.Background(), d)
	require.NoError(t, err)
	assert.True(t, result.Unauthorized)
	assert.Empty(t, repo.events, "a rejected delivery must not be recorded")
	assert.Equal(t, models.SubscriptionStatusAuthorized, repo.subs[subKey("mercadopago", "pre-1")].Status)
}

func TestHandleWebhook_PreapprovalTransition(t *testing.T) {
	repo := newFakeRepository()
	seedSubscription(repo, models.SubscriptionStatusAuthorized)
	periodEnd := testNow.Add(60 * 24 * time.Hour)
	processor := &fakeProcessor{preapprovals: map[string]*Preapproval{
		"pre-1": {ID: "pre-1", Status: "paused", NextPaymentDate: &periodEnd},
	}}
	notifier := &fakeNotifier{}
	s := newTestService(repo, processor, notifier, &fakeLedger{})

	result, err := s.HandleWebhook(context.Background(), signedDelivery(TopicPreapproval, "req-1", "pre-1"))
	require.NoError(t, err)
	assert.False(t, result.Unauthorized)
	assert.False(t, result.Duplicate)

	sub := repo.subs[subKey("mercadopago", "pre-1")]
	assert.Equal(t, models.SubscriptionStatusPaused, sub.Status)
	assert.Equal(t, periodEnd, *sub.CurrentPeriodEnd)
	require.Len(t, notifier.calls, 1)
	assert.Equal(t, uint(77), notifier.calls[0].userID)
	require.Len(t, repo.notifications, 1)
	assert.Equal(t, "system", repo.notifications[0].Type)

	ev := repo.events["mercadopago|req-1"]
	require.NotNil(t, ev)
	assert.NotNil(t, ev.ProcessedAt)
	assert.Empty(t, ev.ProcessingError)
}

func TestHandleWebhook_DuplicateDeliveryIsNoOp(t *testing.T) {
	repo := newFakeRepository()
	seedSubscription(repo, models.SubscriptionStatusAuthorized)
	processor := &fakeProcessor{preapprovals: map[string]*Preapproval{
		"pre-1": {ID: "pre-1", Status: "pending"},
	}}
	s := newTestService(repo, processor, &fakeNotifier{}, &fakeLedger{})

	d := signedDelivery(TopicPreapproval, "req-1", "pre-1")
	_, err := s.HandleWebhook(context.Background(), d)
	require.NoError(t, err)

	first := *repo.subs[subKey("mercadopago", "pre-1")]
	require.Equal(t, models.SubscriptionStatusPending, first.Status)
	require.NotNil(t, first.PendingSince)

	// Re-delivering the identical event must leave everything untouched,
	// including the pending clock.
	result, err := s.HandleWebhook(context.Background(), d)
	require.NoError(t, err)
	assert.True(t, result.Duplicate)
	assert.Equal(t, first, *repo.subs[subKey("mercadopago", "pre-1")])
}

func TestHandleWebhook_PendingClockResetsOnGenuineReentry(t *testing.T) {
	repo := newFakeRepository()
	seedSubscription(repo, models.SubscriptionStatusAuthorized)
	processor := &fakeProcessor{preapprovals: map[string]*Preapproval{
		"pre-1": {ID: "pre-1", Status: "pending"},
	}}
	s := newTestService(repo, processor, &fakeNotifier{}, &fakeLedger{})

	_, err := s.HandleWebhook(context.Background(), signedDelivery(TopicPreapproval, "req-1", "pre-1"))
	require.NoError(t, err)
	firstPending := *repo.subs[subKey("mercadopago", "pre-1")].PendingSince
	assert.Equal(t, testNow, firstPending)

	// Payment recovers...
	processor.preapprovals["pre-1"].Status = "authorized"
	_, err = s.HandleWebhook(context.Background(), signedDelivery(TopicPreapproval, "req-2", "pre-1"))
	require.NoError(t, err)
	assert.Nil(t, repo.subs[subKey("mercadopago", "pre-1")].PendingSince)

	// ...and fails again later: the retry clock starts fresh.
	later := testNow.Add(48 * time.Hour)
	s.Now = func() time.Time { return later }
	processor.preapprovals["pre-1"].Status = "pending"
	_, err = s.HandleWebhook(context.Background(), signedDelivery(TopicPreapproval, "req-3", "pre-1"))
	require.NoError(t, err)
	assert.Equal(t, later, *repo.subs[subKey("mercadopago", "pre-1")].PendingSince)
}

func TestHandleWebhook_CancelledIsTerminal(t *testing.T) {
	repo := newFakeRepository()
	seedSubscription(repo, models.SubscriptionStatusCancelled)
	processor := &fakeProcessor{preapprovals: map[string]*Preapproval{
		"pre-1": {ID: "pre-1", Status: "authorized"},
	}}
	s := newTestService(repo, processor, &fakeNotifier{}, &fakeLedger{})

	_, err := s.HandleWebhook(context.Background(), signedDelivery(TopicPreapproval, "req-1", "pre-1"))
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusCancelled, repo.subs[subKey("mercadopago", "pre-1")].Status)
}

func TestHandleWebhook_DisallowedTransitionSkipped(t *testing.T) {
	repo := newFakeRepository()
	seedSubscription(repo, models.SubscriptionStatusPaused)
	processor := &fakeProcessor{preapprovals: map[string]*Preapproval{
		"pre-1": {ID: "pre-1", Status: "pending"},
	}}
	s := newTestService(repo, processor, &fakeNotifier{}, &fakeLedger{})

	_, err := s.HandleWebhook(context.Background(), signedDelivery(TopicPreapproval, "req-1", "pre-1"))
	require.NoError(t, err)
	sub := repo.subs[subKey("mercadopago", "pre-1")]
	assert.Equal(t, models.SubscriptionStatusPaused, sub.Status)
	assert.Nil(t, sub.PendingSince)
}

func TestHandleWebhook_UnknownSubscriptionAcknowledged(t *testing.T) {
	repo := newFakeRepository()
	processor := &fakeProcessor{preapprovals: map[string]*Preapproval{
		"pre-x": {ID: "pre-x", Status: "authorized"},
	}}
	s := newTestService(repo, processor, &fakeNotifier{}, &fakeLedger{})

	result, err := s.HandleWebhook(context.Background(), signedDelivery(TopicPreapproval, "req-1", "pre-x"))
	require.NoError(t, err, "unknown resources are acknowledged, not retried")
	assert.True(t, result.Ignored)
	assert.Contains(t, repo.events["mercadopago|req-1"].ProcessingError, "no local subscription")
}

func TestHandleWebhook_ProcessorFetchFailureIsRetryable(t *testing.T) {
	repo := newFakeRepository()
	seedSubscription(repo, models.SubscriptionStatusAuthorized)
	processor := &fakeProcessor{err: errors.New("connection refused")}
	s := newTestService(repo, processor, &fakeNotifier{}, &fakeLedger{})

	_, err := s.HandleWebhook(context.Background(), signedDelivery(TopicPreapproval, "req-1", "pre-1"))
	assert.Error(t, err, "infra failures must bubble up so the processor retries")
	assert.Empty(t, repo.events, "a failed delivery must free its request id for the retry")
}

func TestHandleWebhook_RetryAfterInfraFailureIsReprocessed(t *testing.T) {
	repo := newFakeRepository()
	seedSubscription(repo, models.SubscriptionStatusAuthorized)
	processor := &fakeProcessor{err: errors.New("connection refused")}
	s := newTestService(repo, processor, &fakeNotifier{}, &fakeLedger{})

	d := signedDelivery(TopicPreapproval, "req-1", "pre-1")
	_, err := s.HandleWebhook(context.Background(), d)
	require.Error(t, err)

	// The processor retries the identical delivery once the outage clears;
	// the same request id must go through instead of being deduplicated away.
	processor.err = nil
	processor.preapprovals = map[string]*Preapproval{
		"pre-1": {ID: "pre-1", Status: "paused"},
	}
	result, err := s.HandleWebhook(context.Background(), d)
	require.NoError(t, err)
	assert.False(t, result.Duplicate)
	assert.Equal(t, models.SubscriptionStatusPaused, repo.subs[subKey("mercadopago", "pre-1")].Status)
}

func TestHandleWebhook_UnknownTopicIgnored(t *testing.T) {
	repo := newFakeRepository()
	s := newTestService(repo, &fakeProcessor{}, &fakeNotifier{}, &fakeLedger{})

	result, err := s.HandleWebhook(context.Background(), signedDelivery("plan", "req-1", "res-1"))
	require.NoError(t, err)
	assert.True(t, result.Ignored)
}

func TestHandleWebhook_ApprovedPaymentConfirmsBooking(t *testing.T) {
	repo := newFakeRepository()
	repo.shops[10] = &models.Shop{ID: 10, OwnerUserID: 77}
	pending := models.BookingPaymentPending
	repo.bookings["bk-1"] = &models.Booking{
		Reference:     "bk-1",
		ShopID:        10,
		CustomerName:  "Ana",
		ServiceName:   "Corte",
		Status:        models.BookingStatusPending,
		PaymentStatus: &pending,
	}
	processor := &fakeProcessor{payments: map[string]*Payment{
		"555": {ID: 555, Status: PaymentStatusApproved, ExternalReference: "bk-1"},
	}}
	notifier := &fakeNotifier{}
	s := newTestService(repo, processor, notifier, &fakeLedger{})

	_, err := s.HandleWebhook(context.Background(), signedDelivery(TopicPayment, "req-1", "555"))
	require.NoError(t, err)

	booking := repo.bookings["bk-1"]
	assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, models.BookingPaymentPaid, *booking.PaymentStatus)
	assert.Equal(t, "555", booking.ExternalPaymentID)
	require.Len(t, notifier.calls, 1)
	assert.Equal(t, "booking-paid", notifier.calls[0].eventType)
	require.Len(t, repo.notifications, 1)
	assert.Equal(t, "booking-paid", repo.notifications[0].Type)
	assert.Equal(t, uint(77), repo.notifications[0].UserID)
}

func TestHandleWebhook_PaymentForReapedBookingDoesNotResurrect(t *testing.T) {
	repo := newFakeRepository()
	repo.shops[10] = &models.Shop{ID: 10, OwnerUserID: 77}
	repo.bookings["bk-1"] = &models.Booking{
		Reference: "bk-1",
		ShopID:    10,
		Status:    models.BookingStatusCancelled,
	}
	processor := &fakeProcessor{payments: map[string]*Payment{
		"555": {ID: 555, Status: PaymentStatusApproved, ExternalReference: "bk-1"},
	}}
	notifier := &fakeNotifier{}
	s := newTestService(repo, processor, notifier, &fakeLedger{})

	_, err := s.HandleWebhook(context.Background(), signedDelivery(TopicPayment, "req-1", "555"))
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, repo.bookings["bk-1"].Status)
	assert.Empty(t, notifier.calls)
}

func TestHandleWebhook_NonApprovedPaymentIgnored(t *testing.T) {
	repo := newFakeRepository()
	pending := models.BookingPaymentPending
	repo.bookings["bk-1"] = &models.Booking{Reference: "bk-1", Status: models.BookingStatusPending, PaymentStatus: &pending}
	processor := &fakeProcessor{payments: map[string]*Payment{
		"555": {ID: 555, Status: "rejected", ExternalReference: "bk-1"},
	}}
	s := newTestService(repo, processor, &fakeNotifier{}, &fakeLedger{})

	_, err := s.HandleWebhook(context.Background(), signedDelivery(TopicPayment, "req-1", "555"))
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, repo.bookings["bk-1"].Status)
}

func TestRegisterSubscription_RedeemsDiscountOnce(t *testing.T) {
	repo := newFakeRepository()
	ledger := &fakeLedger{}
	s := newTestService(repo, &fakeProcessor{}, &fakeNotifier{}, ledger)

	in := SubscriptionCreateInput{ShopID: 10, ExternalID: "pre-9", PriceCents: 1000, DiscountCode: "LAUNCH50"}
	sub, err := s.RegisterSubscription(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 1, ledger.redeemed)
	assert.Equal(t, int64(500), sub.PriceCents)
	require.NotNil(t, sub.DiscountCodeID)
	assert.Equal(t, uint(42), *sub.DiscountCodeID)

	// A retried checkout hits the existing row and must not redeem again.
	_, err = s.RegisterSubscription(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 1, ledger.redeemed)
}

func TestRegisterSubscription_AttachFailureReturnsUseToPool(t *testing.T) {
	repo := newFakeRepository()
	repo.failSetDiscount = true
	ledger := &fakeLedger{}
	s := newTestService(repo, &fakeProcessor{}, &fakeNotifier{}, ledger)

	_, err := s.RegisterSubscription(context.Background(), SubscriptionCreateInput{
		ShopID: 10, ExternalID: "pre-9", PriceCents: 1000, DiscountCode: "LAUNCH50",
	})
	require.Error(t, err)
	assert.Equal(t, 1, ledger.redeemed)
	assert.Equal(t, 1, ledger.released, "a failed attach must give the redeemed use back")
	assert.Empty(t, repo.discounts)

	// The retried checkout finds the existing row, never redeems again, and
	// the code's capacity is intact for other customers.
	repo.failSetDiscount = false
	sub, err := s.RegisterSubscription(context.Background(), SubscriptionCreateInput{
		ShopID: 10, ExternalID: "pre-9", PriceCents: 1000, DiscountCode: "LAUNCH50",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, ledger.redeemed)
	assert.Nil(t, sub.DiscountCodeID)
}

func TestRegisterSubscription_LedgerFailurePropagatesTypedReason(t *testing.T) {
	repo := newFakeRepository()
	ledger := &fakeLedger{err: discount.ErrExhausted}
	s := newTestService(repo, &fakeProcessor{}, &fakeNotifier{}, ledger)

	sub, err := s.RegisterSubscription(context.Background(), SubscriptionCreateInput{
		ShopID: 10, ExternalID: "pre-9", PriceCents: 1000, DiscountCode: "LAUNCH50",
	})
	assert.ErrorIs(t, err, discount.ErrExhausted)
	require.NotNil(t, sub)
	assert.Equal(t, int64(1000), sub.PriceCents, "full price stands when the code is gone")
	assert.Empty(t, repo.discounts)
}

func TestCancelSubscription_Terminal(t *testing.T) {
	repo := newFakeRepository()
	seedSubscription(repo, models.SubscriptionStatusAuthorized)
	s := newTestService(repo, &fakeProcessor{}, &fakeNotifier{}, &fakeLedger{})

	sub, err := s.CancelSubscription(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusCancelled, sub.Status)

	// Cancelling twice is a no-op, not an error.
	sub, err = s.CancelSubscription(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusCancelled, sub.Status)
}

func TestTransitionAllowed(t *testing.T) {
	allowed := [][2]string{
		{"trial", "authorized"},
		{"authorized", "pending"},
		{"pending", "authorized"},
		{"authorized", "paused"},
		{"pending", "paused"},
		{"paused", "authorized"},
		{"trial", "cancelled"},
		{"paused", "cancelled"},
		{"pending", "pending"},
	}
	for _, pair := range allowed {
		assert.True(t, transitionAllowed(pair[0], pair[1]), "%s -> %s should be allowed", pair[0], pair[1])
	}

	denied := [][2]string{
		{"trial", "pending"},
		{"trial", "paused"},
		{"paused", "pending"},
		{"cancelled", "authorized"},
		{"cancelled", "pending"},
	}
	for _, pair := range denied {
		assert.False(t, transitionAllowed(pair[0], pair[1]), "%s -> %s should be denied", pair[0], pair[1])
	}
}
