package repository

import (
	"gorm.io/gorm"

	"smmpanel/internal/models"
)

// ProviderRepository handles upstream provider database operations.
type ProviderRepository struct {
	db *gorm.DB
}

func NewProviderRepository(db *gorm.DB) *ProviderRepository {
	return &ProviderRepository{db: db}
}

// FindByID finds a provider by primary key.
func (r *ProviderRepository) FindByID(id uint) (*models.Provider, error) {
	var provider models.Provider
	if err := r.db.First(&provider, id).Error; err != nil {
		return nil, err
	}
	return &provider, nil
}

// Create inserts a new provider.
func (r *ProviderRepository) Create(provider *models.Provider) error {
	return r.db.Create(provider).Error
}
