package reaper

import (
	"context"
	"time"

	"github.com/ManuelReschke/BookFox/app/models"
	"gorm.io/gorm"
)

// DefaultPendingPaymentTimeout is how long a booking may sit with a pending
// payment before the sweep cancels it.
const DefaultPendingPaymentTimeout = 10 * time.Minute

// Repository provides the bulk conditional update the reaper runs.
type Repository interface {
	CancelStalePendingBookings(cutoff time.Time) (int64, error)
}

// Reaper cancels bookings whose payment never arrived. It is triggered from
// the outside (cron endpoint) and never schedules itself.
type Reaper struct {
	repo Repository

	// PendingPaymentTimeout is injected so tests can run against synthetic
	// clocks; production uses the default.
	PendingPaymentTimeout time.Duration
}

// NewReaper creates a reaper from an injected repository.
func NewReaper(repo Repository) *Reaper {
	return &Reaper{
		repo:                  repo,
		PendingPaymentTimeout: DefaultPendingPaymentTimeout,
	}
}

// NewReaperFromDB creates a reaper backed by GORM.
func NewReaperFromDB(db *gorm.DB) *Reaper {
	return NewReaper(NewRepository(db))
}

// ReapPendingBookings cancels every booking stuck in PENDING/PENDING older
// than the timeout and returns how many rows it touched. Safe to run
// concurrently with itself and with payment confirmations: the condition is
// re-evaluated per row at write time, so a booking paid in the same instant
// is simply excluded.
func (r *Reaper) ReapPendingBookings(ctx context.Context, now time.Time) (int64, error) {
	_ = ctx
	cutoff := now.Add(-r.PendingPaymentTimeout)
	return r.repo.CancelStalePendingBookings(cutoff)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a reaper repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// CancelStalePendingBookings is one bulk UPDATE. The status guard keeps
// confirmed and already-cancelled rows out no matter what the caller read
// beforehand, and clearing payment_status marks the payment as abandoned.
func (r *gormRepository) CancelStalePendingBookings(cutoff time.Time) (int64, error) {
	tx := r.db.Model(&models.Booking{}).
		Where("status = ? AND payment_status = ? AND created_at < ?",
			models.BookingStatusPending, models.BookingPaymentPending, cutoff).
		Updates(map[string]interface{}{
			"status":         models.BookingStatusCancelled,
			"payment_status": nil,
		})
	return tx.RowsAffected, tx.Error
}
