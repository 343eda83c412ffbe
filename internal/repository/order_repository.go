package repository

import (
	"errors"
	"fmt"
	"time"

	"fuel_dispatch/internal/apperrors"
	"fuel_dispatch/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	CreateWithHistory(order *models.Order, remarks string) error
	GetByID(id uint) (*models.Order, error)
	GetByCustomer(customerID uint) ([]models.Order, error)
	GetByDriver(driverID uint) ([]models.Order, error)
	GetAll() ([]models.Order, error)
	TransitionStatus(orderID, actorID uint, newStatus models.OrderStatus, remarks string) (*models.Order, error)
	AssignDriver(orderID, driverID uint) (bool, error)
	RevenueCompleted() (float64, error)
	CountActive() (int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// CreateWithHistory writes the order and its initial PENDING history row
// in one transaction; neither exists without the other.
func (r *orderRepository) CreateWithHistory(order *models.Order, remarks string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		history := &models.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    order.Status,
			UpdatedBy: order.CustomerID,
			Remarks:   remarks,
		}
		return tx.Create(history).Error
	})
}

func (r *orderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		Preload("Driver").
		Preload("Customer").
		First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByCustomer(customerID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.
		Preload("History").Preload("Driver").
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepository) GetByDriver(driverID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.
		Preload("History").
		Where("driver_id = ?", driverID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepository) GetAll() ([]models.Order, error) {
	var orders []models.Order
	err := r.db.
		Preload("History").Preload("Driver").
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

// TransitionStatus moves an order through the state graph. The row is
// locked for the duration of the transaction, so concurrent updates
// serialize and the second writer validates against the first writer's
// committed status.
func (r *orderRepository) TransitionStatus(orderID, actorID uint, newStatus models.OrderStatus, remarks string) (*models.Order, error) {
	var order models.Order
	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, orderID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound
		}
		if err != nil {
			return err
		}

		if !models.CanTransition(models.OrderStatus(order.Status), newStatus) {
			return fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidTransition, order.Status, newStatus)
		}

		if err := tx.Model(&order).Update("status", string(newStatus)).Error; err != nil {
			return err
		}
		history := &models.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    string(newStatus),
			UpdatedBy: actorID,
			Remarks:   remarks,
		}
		return tx.Create(history).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// AssignDriver sets the driver and moves PENDING -> ASSIGNED with a
// SYSTEM history row. The guarded update only matches while the order is
// still PENDING, so a redelivered job or a concurrent worker is a no-op;
// it reports whether this call performed the assignment.
func (r *orderRepository) AssignDriver(orderID, driverID uint) (bool, error) {
	assigned := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, string(models.OrderPending)).
			Updates(map[string]interface{}{
				"driver_id": driverID,
				"status":    string(models.OrderAssigned),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		assigned = true
		history := &models.OrderStatusHistory{
			OrderID:   orderID,
			Status:    string(models.OrderAssigned),
			UpdatedBy: models.ActorSystem,
			Remarks:   "Driver assigned automatically",
			CreatedAt: time.Now(),
		}
		return tx.Create(history).Error
	})
	return assigned, err
}

func (r *orderRepository) RevenueCompleted() (float64, error) {
	var revenue float64
	err := r.db.Model(&models.Order{}).
		Where("status = ?", string(models.OrderCompleted)).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&revenue).Error
	return revenue, err
}

func (r *orderRepository) CountActive() (int64, error) {
	var count int64
	err := r.db.Model(&models.Order{}).
		Where("status NOT IN ?", models.TerminalStatuses()).
		Count(&count).Error
	return count, err
}
