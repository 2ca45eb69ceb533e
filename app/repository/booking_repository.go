package repository

import (
	"time"

	"github.com/ManuelReschke/BookFox/app/models"
	"gorm.io/gorm"
)

// bookingRepository implements the BookingRepository interface
type bookingRepository struct {
	db *gorm.DB
}

// NewBookingRepository creates a new booking repository instance
func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

// Create creates a new booking in the database
func (r *bookingRepository) Create(booking *models.Booking) error {
	return r.db.Create(booking).Error
}

// GetByID retrieves a booking by its ID
func (r *bookingRepository) GetByID(id uint) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.First(&booking, id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetByReference retrieves a booking by its public reference
func (r *bookingRepository) GetByReference(reference string) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.Where("reference = ?", reference).First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetByShopID retrieves a shop's bookings with pagination, newest first
func (r *bookingRepository) GetByShopID(shopID uint, offset, limit int) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.Where("shop_id = ?", shopID).
		Offset(offset).Limit(limit).
		Order("starts_at DESC").
		Find(&bookings).Error
	return bookings, err
}

// CountByShopID returns the total number of bookings for a shop
func (r *bookingRepository) CountByShopID(shopID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Booking{}).Where("shop_id = ?", shopID).Count(&count).Error
	return count, err
}

// CountPendingPayments returns the number of bookings still waiting for payment
func (r *bookingRepository) CountPendingPayments(shopID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Booking{}).
		Where("shop_id = ? AND status = ? AND payment_status = ?",
			shopID, models.BookingStatusPending, models.BookingPaymentPending).
		Count(&count).Error
	return count, err
}

// GetUpcoming retrieves confirmed bookings starting at or after the given time
func (r *bookingRepository) GetUpcoming(shopID uint, from time.Time, limit int) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.Where("shop_id = ? AND status = ? AND starts_at >= ?",
		shopID, models.BookingStatusConfirmed, from).
		Order("starts_at ASC").
		Limit(limit).
		Find(&bookings).Error
	return bookings, err
}
