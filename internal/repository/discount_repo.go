package repository

import (
	"gorm.io/gorm"

	"smmpanel/internal/models"
)

// DiscountRepository handles discount voucher database operations.
type DiscountRepository struct {
	db *gorm.DB
}

func NewDiscountRepository(db *gorm.DB) *DiscountRepository {
	return &DiscountRepository{db: db}
}

// FindByCode finds a voucher by its code string.
func (r *DiscountRepository) FindByCode(code string) (*models.Discount, error) {
	var d models.Discount
	if err := r.db.Where("code = ?", code).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a new voucher.
func (r *DiscountRepository) Create(d *models.Discount) error {
	return r.db.Create(d).Error
}

// MarkUsedTx bumps the voucher's usage counter inside tx.
func (r *DiscountRepository) MarkUsedTx(tx *gorm.DB, id uint) error {
	return tx.Model(&models.Discount{}).Where("id = ?", id).
		Update("used", gorm.Expr("used + 1")).Error
}
