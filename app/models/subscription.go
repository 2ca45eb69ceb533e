package models

import "time"

// Subscription statuses as reported by the processor's preapproval resource.
// "trial" is local only: the row exists but no preapproval was authorized yet.
const (
	SubscriptionStatusTrial      = "trial"
	SubscriptionStatusAuthorized = "authorized"
	SubscriptionStatusPending    = "pending"
	SubscriptionStatusPaused     = "paused"
	SubscriptionStatusCancelled  = "cancelled"
)

// Subscription mirrors the processor-side preapproval for a shop. Only the
// billing reconciler writes this row; everything else reads it.
//
// PendingSince is set exactly while Status is "pending" and carries the start
// of the payment-retry window. CurrentPeriodEnd is populated whenever the
// processor reported an authorized or paused subscription.
type Subscription struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	ShopID           uint       `gorm:"not null;uniqueIndex" json:"shop_id"`
	Shop             Shop       `gorm:"foreignKey:ShopID" json:"shop,omitempty"`
	Provider         string     `gorm:"type:varchar(20);not null;default:'mercadopago';index:ux_subscriptions_provider_external,unique,priority:1" json:"provider"`
	ExternalID       string     `gorm:"type:varchar(191);not null;index:ux_subscriptions_provider_external,unique,priority:2" json:"external_id"`
	Status           string     `gorm:"type:varchar(32);not null;default:'trial';index" json:"status"`
	CurrentPeriodEnd *time.Time `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	PendingSince     *time.Time `gorm:"type:timestamp;default:null" json:"pending_since,omitempty"`
	PriceCents       int64      `gorm:"not null;default:0" json:"price_cents"`
	DiscountCodeID   *uint      `gorm:"default:null;index" json:"discount_code_id,omitempty"`
	RawPayloadJSON   string     `gorm:"type:longtext" json:"raw_payload_json"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsTerminal reports whether the subscription reached a state with no
// transitions out of it.
func (s *Subscription) IsTerminal() bool {
	return s.Status == SubscriptionStatusCancelled
}

// WasActive reports whether the subscription was billing at some point, i.e.
// the statuses covered by the billing-cycle grace window.
func (s *Subscription) WasActive() bool {
	return s.Status == SubscriptionStatusAuthorized || s.Status == SubscriptionStatusPaused
}
