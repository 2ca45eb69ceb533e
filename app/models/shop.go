package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Payment provider constants used across billing-related models.
const (
	PaymentProviderMercadoPago = "mercadopago"
)

// Shop is the tenant: one barbershop with its own services, team and calendar.
// The Mercado Pago marketplace credentials obtained via the OAuth link flow
// live here; they authorize us to read preapprovals and payments for the shop.
type Shop struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	OwnerUserID uint   `gorm:"not null;uniqueIndex" json:"owner_user_id"`
	Owner       User   `gorm:"foreignKey:OwnerUserID" json:"owner,omitempty"`
	Name        string `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=2,max=150"`
	Slug        string `gorm:"type:varchar(160);uniqueIndex" json:"slug"`
	Timezone    string `gorm:"type:varchar(64);default:'America/Argentina/Buenos_Aires'" json:"timezone"`

	MPUserID          string     `gorm:"type:varchar(64);default:'';index" json:"-"`
	MPAccessTokenEnc  string     `gorm:"type:text" json:"-"`
	MPRefreshTokenEnc string     `gorm:"type:text" json:"-"`
	MPTokenExpiresAt  *time.Time `gorm:"type:timestamp;default:null" json:"-"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (s *Shop) Validate() error {
	v := validator.New()

	return v.Struct(s)
}

// IsPaymentLinked reports whether the shop completed the processor OAuth flow.
func (s *Shop) IsPaymentLinked() bool {
	return s.MPUserID != "" && s.MPAccessTokenEnc != ""
}
