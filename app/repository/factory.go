package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Factory hands out singleton repository instances over one GORM handle.
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a repository factory.
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{db: db}
}

// GetRepositories returns the singleton repository set, building it on first use.
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

func (f *Factory) GetUserRepository() UserRepository {
	return f.GetRepositories().User
}

func (f *Factory) GetShopRepository() ShopRepository {
	return f.GetRepositories().Shop
}

func (f *Factory) GetBookingRepository() BookingRepository {
	return f.GetRepositories().Booking
}

func (f *Factory) GetDiscountCodeRepository() DiscountCodeRepository {
	return f.GetRepositories().DiscountCode
}

func (f *Factory) GetNotificationRepository() NotificationRepository {
	return f.GetRepositories().Notification
}

var globalFactory *Factory
var factoryOnce sync.Once

// InitializeFactory wires the global repository factory; called once at boot.
func InitializeFactory(db *gorm.DB) {
	factoryOnce.Do(func() {
		globalFactory = NewFactory(db)
	})
}

// GetGlobalFactory returns the global repository factory.
func GetGlobalFactory() *Factory {
	if globalFactory == nil {
		panic("Repository factory not initialized. Call InitializeFactory first.")
	}
	return globalFactory
}

// GetGlobalRepositories returns the global repository set.
func GetGlobalRepositories() *Repositories {
	return GetGlobalFactory().GetRepositories()
}
