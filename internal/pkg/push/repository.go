package push

import (
	"github.com/ManuelReschke/BookFox/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a push endpoint repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) ListByUser(userID uint) ([]models.PushSubscription, error) {
	var subs []models.PushSubscription
	err := r.db.Where("user_id = ?", userID).Find(&subs).Error
	return subs, err
}

// Upsert keys on the endpoint URL: re-subscribing from the same browser
// refreshes the keys instead of piling up rows.
func (r *gormRepository) Upsert(sub *models.PushSubscription) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "endpoint"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id",
			"p256dh",
			"auth",
			"user_agent",
			"updated_at",
		}),
	}).Create(sub).Error
}

func (r *gormRepository) DeleteByEndpoint(endpoint string) error {
	return r.db.Where("endpoint = ?", endpoint).Delete(&models.PushSubscription{}).Error
}
