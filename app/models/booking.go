package models

import "time"

// Booking statuses. Cancellation is a status transition, never a delete, so
// shop owners keep their history.
const (
	BookingStatusPending   = "PENDING"
	BookingStatusConfirmed = "CONFIRMED"
	BookingStatusCancelled = "CANCELLED"
)

// Booking payment statuses. A nil PaymentStatus means no payment is attached
// (free service or payment already cleaned up).
const (
	BookingPaymentPending = "PENDING"
	BookingPaymentPaid    = "PAID"
)

// Booking is one customer appointment. The booking wizard creates rows in
// PENDING/PENDING, the payment webhook confirms them, and the cron reaper
// cancels the ones whose payment never arrived.
type Booking struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Reference         string    `gorm:"type:varchar(36);not null;uniqueIndex" json:"reference"`
	ShopID            uint      `gorm:"not null;index" json:"shop_id"`
	Shop              Shop      `gorm:"foreignKey:ShopID" json:"shop,omitempty"`
	CustomerName      string    `gorm:"type:varchar(150);not null" json:"customer_name"`
	CustomerEmail     string    `gorm:"type:varchar(200);default:''" json:"customer_email"`
	ServiceName       string    `gorm:"type:varchar(150);not null" json:"service_name"`
	StartsAt          time.Time `gorm:"type:timestamp;not null;index" json:"starts_at"`
	PriceCents        int64     `gorm:"not null;default:0" json:"price_cents"`
	Status            string    `gorm:"type:varchar(16);not null;default:'PENDING';index:idx_bookings_status_payment,priority:1" json:"status"`
	PaymentStatus     *string   `gorm:"type:varchar(16);default:null;index:idx_bookings_status_payment,priority:2" json:"payment_status,omitempty"`
	ExternalPaymentID string    `gorm:"type:varchar(191);default:'';index" json:"external_payment_id"`
	CreatedAt         time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
