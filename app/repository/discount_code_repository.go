package repository

import (
	"github.com/ManuelReschke/BookFox/app/models"
	"gorm.io/gorm"
)

// discountCodeRepository implements the DiscountCodeRepository interface
type discountCodeRepository struct {
	db *gorm.DB
}

// NewDiscountCodeRepository creates a new discount code repository instance
func NewDiscountCodeRepository(db *gorm.DB) DiscountCodeRepository {
	return &discountCodeRepository{db: db}
}

// Create creates a new discount code
func (r *discountCodeRepository) Create(code *models.DiscountCode) error {
	return r.db.Create(code).Error
}

// GetByCode retrieves a discount code by its code string
func (r *discountCodeRepository) GetByCode(code string) (*models.DiscountCode, error) {
	var dc models.DiscountCode
	err := r.db.Where("code = ?", code).First(&dc).Error
	if err != nil {
		return nil, err
	}
	return &dc, nil
}

// List retrieves discount codes with pagination
func (r *discountCodeRepository) List(offset, limit int) ([]models.DiscountCode, error) {
	var codes []models.DiscountCode
	err := r.db.Offset(offset).Limit(limit).Order("created_at DESC").Find(&codes).Error
	return codes, err
}

// Count returns the total number of discount codes
func (r *discountCodeRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.DiscountCode{}).Count(&count).Error
	return count, err
}
