package entitlements

import (
	"time"

	"github.com/ManuelReschke/BookFox/app/models"
)

// Default grace windows. BillingGrace absorbs processor/webhook latency at the
// end of a paid period; PaymentRetryGrace is how long a shop keeps access while
// the processor retries a failed charge.
const (
	DefaultBillingGrace      = 2 * 24 * time.Hour
	DefaultPaymentRetryGrace = 3 * 24 * time.Hour
)

// Engine computes access rights from persisted trial/subscription state.
// It holds no clock and no storage handle; callers pass `now` so that the
// session layer, route guards and banners all agree on the answer.
type Engine struct {
	BillingGrace      time.Duration
	PaymentRetryGrace time.Duration
}

// DefaultEngine uses the production grace windows.
var DefaultEngine = Engine{
	BillingGrace:      DefaultBillingGrace,
	PaymentRetryGrace: DefaultPaymentRetryGrace,
}

// HasAccess reports whether the account may use paid features at `now`.
//
// The trial always wins: while now < trialEndsAt access is granted no matter
// what the subscription says. After that the subscription must carry a period
// end; a pending subscription keeps access through the payment-retry window,
// an authorized or paused one through the billing grace window. Anything else,
// including malformed state, denies access.
func (e Engine) HasAccess(trialEndsAt *time.Time, sub *models.Subscription, now time.Time) bool {
	if trialEndsAt != nil && now.Before(*trialEndsAt) {
		return true
	}
	if sub == nil || sub.CurrentPeriodEnd == nil {
		return false
	}

	switch sub.Status {
	case models.SubscriptionStatusPending:
		if sub.PendingSince == nil {
			return false
		}
		return now.Before(sub.PendingSince.Add(e.PaymentRetryGrace))
	case models.SubscriptionStatusAuthorized, models.SubscriptionStatusPaused:
		return now.Before(sub.CurrentPeriodEnd.Add(e.BillingGrace))
	default:
		return false
	}
}

// IsPaymentFailure reports whether the subscription sits in a failed-payment
// state past the retry window, i.e. the point where the UI should stop showing
// a "payment retrying" banner and lock the account instead.
func (e Engine) IsPaymentFailure(sub *models.Subscription, now time.Time) bool {
	if sub == nil || sub.Status != models.SubscriptionStatusPending || sub.PendingSince == nil {
		return false
	}
	return !now.Before(sub.PendingSince.Add(e.PaymentRetryGrace))
}

// HasAccess is the package-level shorthand using the default grace windows.
func HasAccess(trialEndsAt *time.Time, sub *models.Subscription, now time.Time) bool {
	return DefaultEngine.HasAccess(trialEndsAt, sub, now)
}

// IsPaymentFailure is the package-level shorthand using the default windows.
func IsPaymentFailure(sub *models.Subscription, now time.Time) bool {
	return DefaultEngine.IsPaymentFailure(sub, now)
}
