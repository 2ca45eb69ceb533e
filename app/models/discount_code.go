package models

import "time"

// DiscountCode is a capped promo code redeemed at subscription creation.
// TimesUsed only ever moves through the guarded increment in the discount
// ledger, so 0 <= TimesUsed <= MaxUses holds under concurrent redemptions.
type DiscountCode struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	Code               string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"code"`
	OverridePriceCents int64     `gorm:"not null" json:"override_price_cents"`
	DurationMonths     int       `gorm:"not null;default:1" json:"duration_months"`
	ValidFrom          time.Time `gorm:"type:timestamp;not null" json:"valid_from"`
	ValidUntil         time.Time `gorm:"type:timestamp;not null" json:"valid_until"`
	MaxUses            int       `gorm:"not null;default:1" json:"max_uses"`
	TimesUsed          int       `gorm:"not null;default:0" json:"times_used"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
