package models

import "time"

// PushSubscription is one registered web-push endpoint for a user. A user may
// hold several (desktop + phone). Endpoints that answer 404/410 are pruned.
type PushSubscription struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Endpoint  string    `gorm:"type:varchar(500);not null;uniqueIndex:ux_push_subscriptions_endpoint,length:191" json:"endpoint"`
	P256dh    string    `gorm:"type:varchar(255);not null" json:"p256dh"`
	Auth      string    `gorm:"type:varchar(255);not null" json:"auth"`
	UserAgent string    `gorm:"type:varchar(255);default:''" json:"user_agent"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
