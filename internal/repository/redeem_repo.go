package repository

import (
	"gorm.io/gorm"

	"smmpanel/internal/models"
)

// RedeemRepository handles redeem code database operations.
type RedeemRepository struct {
	db *gorm.DB
}

func NewRedeemRepository(db *gorm.DB) *RedeemRepository {
	return &RedeemRepository{db: db}
}

// DB exposes the underlying handle for transaction composition.
func (r *RedeemRepository) DB() *gorm.DB {
	return r.db
}

// FindByCode finds a redeem code by its code string.
func (r *RedeemRepository) FindByCode(code string) (*models.RedeemCode, error) {
	var rc models.RedeemCode
	if err := r.db.Where("code = ?", code).First(&rc).Error; err != nil {
		return nil, err
	}
	return &rc, nil
}

// Create inserts a new redeem code.
func (r *RedeemRepository) Create(code *models.RedeemCode) error {
	return r.db.Create(code).Error
}

// LockedByCodeTx reloads the code row under a FOR UPDATE lock so quota checks
// and the used counter serialize across concurrent claims.
func (r *RedeemRepository) LockedByCodeTx(tx *gorm.DB, code string) (*models.RedeemCode, error) {
	var rc models.RedeemCode
	err := forUpdate(tx).Where("code = ?", code).First(&rc).Error
	if err != nil {
		return nil, err
	}
	return &rc, nil
}

// ClaimedTx reports whether the user already has a redemption for the code.
func (r *RedeemRepository) ClaimedTx(tx *gorm.DB, codeID, userID uint) (bool, error) {
	var count int64
	err := tx.Model(&models.RedeemUsed{}).
		Where("code_id = ? AND user_id = ?", codeID, userID).Count(&count).Error
	return count > 0, err
}

// RecordClaimTx inserts the redemption row and bumps the used counter.
func (r *RedeemRepository) RecordClaimTx(tx *gorm.DB, codeID, userID uint) error {
	if err := tx.Create(&models.RedeemUsed{CodeID: codeID, UserID: userID}).Error; err != nil {
		return err
	}
	return tx.Model(&models.RedeemCode{}).Where("id = ?", codeID).
		Update("used", gorm.Expr("used + 1")).Error
}
