package models

import "time"

// WebhookEvent stores processor webhook deliveries with deduplication
// metadata for idempotent processing. The processor retries deliveries and
// may replay them out of order; the unique (provider, request id) index makes
// every delivery land exactly once.
type WebhookEvent struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Provider        string     `gorm:"type:varchar(20);not null;index:ux_webhook_events_provider_request,unique,priority:1;index" json:"provider"`
	RequestID       string     `gorm:"type:varchar(191);not null;default:'';index:ux_webhook_events_provider_request,unique,priority:2" json:"request_id"`
	Topic           string     `gorm:"type:varchar(100);not null;index" json:"topic"`
	ResourceID      string     `gorm:"type:varchar(191);not null;default:'';index" json:"resource_id"`
	PayloadJSON     string     `gorm:"type:longtext;not null" json:"payload_json"`
	ProcessedAt     *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"type:text" json:"processing_error"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
