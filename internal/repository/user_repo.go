package repository

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"smmpanel/internal/models"
)

// ErrInsufficientBalance is returned by Debit when the locked balance does not
// cover the requested amount. It carries the figures handlers report back.
type ErrInsufficientBalance struct {
	Required decimal.Decimal
	Current  decimal.Decimal
}

func (e *ErrInsufficientBalance) Error() string {
	return fmt.Sprintf("insufficient balance: required %s, current %s",
		e.Required.StringFixed(4), e.Current.StringFixed(4))
}

// UserRepository handles all user database operations.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// DB exposes the underlying handle for transaction composition.
func (r *UserRepository) DB() *gorm.DB {
	return r.db
}

// FindByID finds a user by primary key.
func (r *UserRepository) FindByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByAPIKey finds an active user by their panel API key.
func (r *UserRepository) FindByAPIKey(key string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("api_key = ?", key).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts a new user.
func (r *UserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// lockedUser loads the user row under a FOR UPDATE lock so that concurrent
// balance mutations within other transactions serialize on the row.
func lockedUser(tx *gorm.DB, userID uint) (*models.User, error) {
	var user models.User
	if err := forUpdate(tx).First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Debit subtracts amount from the user's balance inside tx, failing with
// ErrInsufficientBalance when the balance does not cover it. Must be called
// inside the same transaction as the write that depends on the debit.
func (r *UserRepository) Debit(tx *gorm.DB, userID uint, amount decimal.Decimal) error {
	user, err := lockedUser(tx, userID)
	if err != nil {
		return err
	}
	if user.Balance.LessThan(amount) {
		return &ErrInsufficientBalance{Required: amount, Current: user.Balance}
	}
	return tx.Model(&models.User{}).Where("id = ?", userID).
		Update("balance", user.Balance.Sub(amount)).Error
}

// Credit adds amount to the user's balance inside tx.
func (r *UserRepository) Credit(tx *gorm.DB, userID uint, amount decimal.Decimal) error {
	user, err := lockedUser(tx, userID)
	if err != nil {
		return err
	}
	return tx.Model(&models.User{}).Where("id = ?", userID).
		Update("balance", user.Balance.Add(amount)).Error
}

// IsInsufficientBalance reports whether err is a balance shortfall.
func IsInsufficientBalance(err error) bool {
	var target *ErrInsufficientBalance
	return errors.As(err, &target)
}
