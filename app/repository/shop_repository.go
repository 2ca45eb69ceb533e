package repository

import (
	"github.com/ManuelReschke/BookFox/app/models"
	"gorm.io/gorm"
)

// shopRepository implements the ShopRepository interface
type shopRepository struct {
	db *gorm.DB
}

// NewShopRepository creates a new shop repository instance
func NewShopRepository(db *gorm.DB) ShopRepository {
	return &shopRepository{db: db}
}

// Create creates a new shop in the database
func (r *shopRepository) Create(shop *models.Shop) error {
	return r.db.Create(shop).Error
}

// GetByID retrieves a shop by its ID
func (r *shopRepository) GetByID(id uint) (*models.Shop, error) {
	var shop models.Shop
	err := r.db.First(&shop, id).Error
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

// GetBySlug retrieves a shop by its public slug
func (r *shopRepository) GetBySlug(slug string) (*models.Shop, error) {
	var shop models.Shop
	err := r.db.Where("slug = ?", slug).First(&shop).Error
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

// GetByOwnerUserID retrieves the shop owned by the given user
func (r *shopRepository) GetByOwnerUserID(ownerUserID uint) (*models.Shop, error) {
	var shop models.Shop
	err := r.db.Where("owner_user_id = ?", ownerUserID).First(&shop).Error
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

// Update updates an existing shop
func (r *shopRepository) Update(shop *models.Shop) error {
	return r.db.Save(shop).Error
}

// Count returns the total number of shops
func (r *shopRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Shop{}).Count(&count).Error
	return count, err
}
