package discount

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ManuelReschke/BookFox/app/models"
	"gorm.io/gorm"
)

// Redemption failure reasons. Callers match with errors.Is to produce the
// right user-facing message; none of them is a generic failure.
var (
	ErrNotFound    = errors.New("discount code not found")
	ErrNotYetValid = errors.New("discount code not yet valid")
	ErrExpired     = errors.New("discount code expired")
	ErrExhausted   = errors.New("discount code exhausted")
)

// Redemption is one consumed use of a discount code.
type Redemption struct {
	CodeID              uint
	Code                string
	EffectivePriceCents int64
	DurationMonths      int
}

// Repository provides DB operations used by the ledger.
type Repository interface {
	GetByCode(code string) (*models.DiscountCode, error)
	IncrementUsageIfAvailable(codeID uint) (bool, error)
	DecrementUsage(codeID uint) (bool, error)
}

// Ledger redeems discount codes under a hard usage cap. The cap is enforced
// by the storage layer at write time, so concurrent redemptions can never
// push times_used past max_uses no matter how stale their reads were.
type Ledger struct {
	repo Repository
}

// NewLedger creates a ledger from an injected repository.
func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo}
}

// NewLedgerFromDB creates a ledger backed by GORM.
func NewLedgerFromDB(db *gorm.DB) *Ledger {
	return NewLedger(NewRepository(db))
}

// Redeem consumes one use of the code if it exists, is inside its validity
// window at `now`, and still has capacity. Redemption is not replay-safe;
// callers invoke it at most once per successful subscription creation.
func (l *Ledger) Redeem(ctx context.Context, code string, now time.Time) (*Redemption, error) {
	_ = ctx
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, ErrNotFound
	}

	dc, err := l.repo.GetByCode(trimmed)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if now.Before(dc.ValidFrom) {
		return nil, ErrNotYetValid
	}
	if now.After(dc.ValidUntil) {
		return nil, ErrExpired
	}

	ok, err := l.repo.IncrementUsageIfAvailable(dc.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrExhausted
	}

	return &Redemption{
		CodeID:              dc.ID,
		Code:                dc.Code,
		EffectivePriceCents: dc.OverridePriceCents,
		DurationMonths:      dc.DurationMonths,
	}, nil
}

// Release returns one consumed use to the pool. Callers use it to compensate
// a redemption whose follow-up write failed, so an interrupted checkout never
// burns a use of a capped code. The decrement is guarded at write time and
// cannot push times_used below zero.
func (l *Ledger) Release(ctx context.Context, codeID uint) error {
	_ = ctx
	_, err := l.repo.DecrementUsage(codeID)
	return err
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a discount repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetByCode(code string) (*models.DiscountCode, error) {
	var dc models.DiscountCode
	if err := r.db.Where("code = ?", code).First(&dc).Error; err != nil {
		return nil, err
	}
	return &dc, nil
}

// IncrementUsageIfAvailable bumps times_used by one in a single UPDATE whose
// WHERE clause re-checks the cap at write time. Zero rows affected means the
// code ran out between read and write.
func (r *gormRepository) IncrementUsageIfAvailable(codeID uint) (bool, error) {
	tx := r.db.Model(&models.DiscountCode{}).
		Where("id = ? AND times_used < max_uses", codeID).
		Update("times_used", gorm.Expr("times_used + 1"))
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// DecrementUsage gives one use back, guarded by `times_used > 0` so repeated
// compensation cannot drive the counter negative.
func (r *gormRepository) DecrementUsage(codeID uint) (bool, error) {
	tx := r.db.Model(&models.DiscountCode{}).
		Where("id = ? AND times_used > 0", codeID).
		Update("times_used", gorm.Expr("times_used - 1"))
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}
