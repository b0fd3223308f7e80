package bootstrap

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"smmpanel/internal/models"
)

// MigrateAndSeed ensures required tables exist and inserts baseline rows.
func MigrateAndSeed(db *gorm.DB) error {
	if err := db.AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	if err := seedDefaults(db); err != nil {
		return fmt.Errorf("seed defaults failed: %w", err)
	}
	return nil
}

func allModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Category{},
		&models.Service{},
		&models.Provider{},
		&models.Order{},
		&models.Deposit{},
		&models.PaymentGateway{},
		&models.RedeemCode{},
		&models.RedeemUsed{},
		&models.Discount{},
	}
}

// seedDefaults creates the initial admin account if no users exist yet.
func seedDefaults(db *gorm.DB) error {
	var admin models.User
	err := db.Where("role = ?", models.RoleAdmin).First(&admin).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return db.Create(&models.User{
		Username: "admin",
		Role:     models.RoleAdmin,
		Status:   models.UserActive,
		APIKey:   uuid.NewString(),
	}).Error
}
