package repository

import (
	"time"

	"github.com/ManuelReschke/BookFox/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
}

// ShopRepository defines the interface for shop-related database operations
type ShopRepository interface {
	Create(shop *models.Shop) error
	GetByID(id uint) (*models.Shop, error)
	GetBySlug(slug string) (*models.Shop, error)
	GetByOwnerUserID(ownerUserID uint) (*models.Shop, error)
	Update(shop *models.Shop) error
	Count() (int64, error)
}

// BookingRepository defines the interface for booking-related database operations
type BookingRepository interface {
	Create(booking *models.Booking) error
	GetByID(id uint) (*models.Booking, error)
	GetByReference(reference string) (*models.Booking, error)
	GetByShopID(shopID uint, offset, limit int) ([]models.Booking, error)
	CountByShopID(shopID uint) (int64, error)
	CountPendingPayments(shopID uint) (int64, error)
	GetUpcoming(shopID uint, from time.Time, limit int) ([]models.Booking, error)
}

// DiscountCodeRepository defines the interface for discount code administration.
// Redemption does not live here; it goes through the guarded ledger increment.
type DiscountCodeRepository interface {
	Create(code *models.DiscountCode) error
	GetByCode(code string) (*models.DiscountCode, error)
	List(offset, limit int) ([]models.DiscountCode, error)
	Count() (int64, error)
}

// NotificationRepository defines the interface for in-app notifications
type NotificationRepository interface {
	Create(notification *models.Notification) error
	GetByUserID(userID uint, offset, limit int) ([]models.Notification, error)
	CountUnread(userID uint) (int64, error)
	MarkAsRead(id uint, userID uint) error
	MarkAllAsRead(userID uint) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	User         UserRepository
	Shop         ShopRepository
	Booking      BookingRepository
	DiscountCode DiscountCodeRepository
	Notification NotificationRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Shop:         NewShopRepository(db),
		Booking:      NewBookingRepository(db),
		DiscountCode: NewDiscountCodeRepository(db),
		Notification: NewNotificationRepository(db),
	}
}
