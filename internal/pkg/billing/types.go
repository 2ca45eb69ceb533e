package billing

import (
	"context"
	"time"
)

// WebhookDelivery is one inbound processor callback, headers plus body,
// before any trust decision was made about it.
type WebhookDelivery struct {
	SignatureHeader string
	RequestID       string
	Topic           string
	ResourceID      string
	PayloadJSON     string
}

// WebhookResult tells the HTTP layer how to answer the processor. The
// processor retries on non-2xx, so only genuinely retryable outcomes may
// surface as errors.
type WebhookResult struct {
	Unauthorized bool
	Duplicate    bool
	Ignored      bool
}

// SubscriptionUpdate is the provider-agnostic shape applied to the local
// subscription row after a preapproval resource was fetched and normalized.
type SubscriptionUpdate struct {
	Provider         string
	ExternalID       string
	Status           string
	CurrentPeriodEnd *time.Time
	RawPayloadJSON   string
}

// SubscriptionCreateInput registers a shop's subscription right after checkout.
// DiscountCode is optional and consumed at most once, gated on the row being
// newly created.
type SubscriptionCreateInput struct {
	ShopID       uint
	Provider     string
	ExternalID   string
	PriceCents   int64
	DiscountCode string
}

// ProcessorClient fetches processor-side resources referenced by webhooks.
type ProcessorClient interface {
	GetPreapproval(ctx context.Context, id string) (*Preapproval, error)
	GetPayment(ctx context.Context, id string) (*Payment, error)
}

// Notifier delivers best-effort realtime events. Implementations must never
// block reconciliation; failures are theirs to log.
type Notifier interface {
	Notify(ctx context.Context, userID uint, eventType string, payload map[string]any)
}
