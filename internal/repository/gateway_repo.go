package repository

import (
	"gorm.io/gorm"

	"smmpanel/internal/models"
)

// GatewayRepository handles payment gateway database operations.
type GatewayRepository struct {
	db *gorm.DB
}

func NewGatewayRepository(db *gorm.DB) *GatewayRepository {
	return &GatewayRepository{db: db}
}

// FindByID finds a gateway by primary key.
func (r *GatewayRepository) FindByID(id uint) (*models.PaymentGateway, error) {
	var gateway models.PaymentGateway
	if err := r.db.First(&gateway, id).Error; err != nil {
		return nil, err
	}
	return &gateway, nil
}

// FindActive returns all active gateways.
func (r *GatewayRepository) FindActive() ([]models.PaymentGateway, error) {
	var gateways []models.PaymentGateway
	err := r.db.Where("active = ?", true).Find(&gateways).Error
	return gateways, err
}

// Create inserts a new gateway.
func (r *GatewayRepository) Create(gateway *models.PaymentGateway) error {
	return r.db.Create(gateway).Error
}
