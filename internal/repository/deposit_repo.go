package repository

import (
	"gorm.io/gorm"

	"smmpanel/internal/models"
)

// DepositRepository handles deposit database operations.
type DepositRepository struct {
	db *gorm.DB
}

func NewDepositRepository(db *gorm.DB) *DepositRepository {
	return &DepositRepository{db: db}
}

// FindByID finds a deposit by primary key.
func (r *DepositRepository) FindByID(id uint) (*models.Deposit, error) {
	var deposit models.Deposit
	if err := r.db.First(&deposit, id).Error; err != nil {
		return nil, err
	}
	return &deposit, nil
}

// FindByIDForUser finds a deposit scoped to its owner.
func (r *DepositRepository) FindByIDForUser(id, userID uint) (*models.Deposit, error) {
	var deposit models.Deposit
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&deposit).Error
	if err != nil {
		return nil, err
	}
	return &deposit, nil
}

// Create inserts a new deposit.
func (r *DepositRepository) Create(deposit *models.Deposit) error {
	return r.db.Create(deposit).Error
}

// FindPending returns PENDING deposits for the sweep, oldest first.
func (r *DepositRepository) FindPending(limit int) ([]models.Deposit, error) {
	var deposits []models.Deposit
	err := r.db.Where("status = ?", models.DepositPending).
		Order("id").Limit(limit).Find(&deposits).Error
	return deposits, err
}

// TransitionTx moves the deposit out of PENDING inside tx. The WHERE clause
// re-checks the stored status so a concurrent reconciliation that already
// committed a terminal state makes this a no-op; callers must treat a false
// return as "someone else won" and skip the credit.
func (r *DepositRepository) TransitionTx(tx *gorm.DB, id uint, to models.DepositStatus) (bool, error) {
	res := tx.Model(&models.Deposit{}).
		Where("id = ? AND status = ?", id, models.DepositPending).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
