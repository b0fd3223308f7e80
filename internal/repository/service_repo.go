package repository

import (
	"gorm.io/gorm"

	"smmpanel/internal/models"
)

// ServiceRepository handles service and category database operations.
type ServiceRepository struct {
	db *gorm.DB
}

func NewServiceRepository(db *gorm.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

// FindByID finds a service by primary key.
func (r *ServiceRepository) FindByID(id uint) (*models.Service, error) {
	var service models.Service
	if err := r.db.First(&service, id).Error; err != nil {
		return nil, err
	}
	return &service, nil
}

// FindActive returns all active services ordered by category.
func (r *ServiceRepository) FindActive() ([]models.Service, error) {
	var services []models.Service
	err := r.db.Where("active = ?", true).
		Order("category_id, id").Find(&services).Error
	return services, err
}

// Create inserts a new service.
func (r *ServiceRepository) Create(service *models.Service) error {
	return r.db.Create(service).Error
}

// Update updates service fields.
func (r *ServiceRepository) Update(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Service{}).Where("id = ?", id).Updates(updates).Error
}
