package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	ROLE_USER  = "user"
	ROLE_OWNER = "owner"
	ROLE_ADMIN = "admin"

	STATUS_ACTIVE   = "active"
	STATUS_INACTIVE = "inactive"
	STATUS_DISABLED = "disabled"
)

// User mirrors the account handed to us by the identity provider. Passwords
// and login live there; we only keep the fields billing and entitlement need.
type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"type:varchar(150)" json:"name" validate:"required,min=3,max=150"`
	Email       string         `gorm:"uniqueIndex;type:varchar(200) CHARACTER SET utf8 COLLATE utf8_bin" json:"email" validate:"required,email,min=5,max=200"`
	Role        string         `gorm:"type:varchar(50);default:'user'" json:"role" validate:"oneof=user owner admin"`
	Status      string         `gorm:"type:varchar(50);default:'active'" json:"status" validate:"oneof=active inactive disabled"`
	TrialEndsAt *time.Time     `gorm:"type:timestamp;default:null" json:"trial_ends_at"`
	LastLoginAt *time.Time     `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

// CreateUser registers a local account record. The trial clock starts here and
// is never extended afterwards.
func CreateUser(db *gorm.DB, name string, email string, role string, trialDays int) (*User, error) {
	user := &User{
		Name:   name,
		Email:  email,
		Role:   role,
		Status: STATUS_ACTIVE,
	}
	if trialDays > 0 {
		t := time.Now().Add(time.Duration(trialDays) * 24 * time.Hour)
		user.TrialEndsAt = &t
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}
