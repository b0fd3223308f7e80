package repository

import (
	"gorm.io/gorm"

	"smmpanel/internal/models"
)

// OrderRepository handles order database operations.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// FindByID finds an order by primary key.
func (r *OrderRepository) FindByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByIDForUser finds an order scoped to its owner. Used by the passthrough
// status action so one API key can never read another user's orders.
func (r *OrderRepository) FindByIDForUser(id, userID uint) (*models.Order, error) {
	var order models.Order
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// CreateTx inserts an order inside tx so it commits or rolls back together
// with the balance debit.
func (r *OrderRepository) CreateTx(tx *gorm.DB, order *models.Order) error {
	return tx.Create(order).Error
}

// FindDispatchedOpen returns non-terminal orders that have a provider order id
// and so can be progressed by the sync cron.
func (r *OrderRepository) FindDispatchedOpen(limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.
		Where("pid != '' AND status IN ?", []models.OrderStatus{models.OrderPending, models.OrderProcessing}).
		Limit(limit).Find(&orders).Error
	return orders, err
}

// FindUndispatched returns provider-bound orders that were accepted without a
// provider order id, so the sync pass can retry the dispatch.
func (r *OrderRepository) FindUndispatched(limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.
		Joins("JOIN services ON services.id = orders.service_id").
		Where("orders.pid = '' AND orders.status = ? AND services.provider_id IS NOT NULL AND services.provider_sid != ''",
			models.OrderPending).
		Limit(limit).Find(&orders).Error
	return orders, err
}

// MarkDispatched records a successful late dispatch.
func (r *OrderRepository) MarkDispatched(id, providerID uint, pid string) error {
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(map[string]interface{}{
		"provider_id": providerID,
		"pid":         pid,
		"status":      models.OrderProcessing,
	}).Error
}

// UpdateProgress writes the sync result for one order.
func (r *OrderRepository) UpdateProgress(id uint, status models.OrderStatus, startCount, remains int) error {
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":      status,
		"start_count": startCount,
		"remains":     remains,
	}).Error
}

// FindByUserID returns a user's orders, newest first.
func (r *OrderRepository) FindByUserID(userID uint, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Where("user_id = ?", userID).
		Order("id DESC").Limit(limit).Find(&orders).Error
	return orders, err
}
