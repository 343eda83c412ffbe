package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"fuel_dispatch/internal/apperrors"
	"fuel_dispatch/internal/models"
	"fuel_dispatch/internal/queue"
	"fuel_dispatch/internal/repository"

	"github.com/google/uuid"
)

// DispatchQueue is the producer/consumer surface of the dispatch queue.
type DispatchQueue interface {
	Enqueue(ctx context.Context, job *queue.Job) error
	EnqueueAfter(ctx context.Context, job *queue.Job, delay time.Duration) error
	DeadLetter(ctx context.Context, job *queue.Job) error
}

type CreateOrderInput struct {
	Type     string
	Quantity float64
	AssetID  string
	PumpID   string
	Lat      *float64
	Lng      *float64
}

type UpdateStatusInput struct {
	Status  string
	Remarks string
}

type OrderService interface {
	CreateOrder(ctx context.Context, customerID uint, input CreateOrderInput) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID, actorID uint, input UpdateStatusInput) (*models.Order, error)
	GetOrder(ctx context.Context, id uint) (*models.Order, error)
	ListOrders(ctx context.Context, userID uint, role string) ([]models.Order, error)
}

type orderService struct {
	orderRepo    repository.OrderRepository
	driverRepo   repository.DriverRepository
	pricingRepo  repository.PricingRepository
	dispatch     DispatchQueue
	defaultPrice float64
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	driverRepo repository.DriverRepository,
	pricingRepo repository.PricingRepository,
	dispatch DispatchQueue,
	defaultPrice float64,
) OrderService {
	return &orderService{
		orderRepo:    orderRepo,
		driverRepo:   driverRepo,
		pricingRepo:  pricingRepo,
		dispatch:     dispatch,
		defaultPrice: defaultPrice,
	}
}

// newOrderNumber builds a human-readable, collision-resistant order
// number: a date prefix for operators, a UUID fragment for uniqueness.
func newOrderNumber() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("FD-%s-%s", time.Now().Format("20060102"), strings.ToUpper(suffix))
}

// CreateOrder validates input, writes the order and its PENDING history
// row in one transaction, then enqueues driver assignment. The enqueue
// happens only after the transaction committed; an enqueue failure never
// rolls the order back.
func (s *orderService) CreateOrder(ctx context.Context, customerID uint, input CreateOrderInput) (*models.Order, error) {
	if !models.ValidOrderType(input.Type) {
		return nil, fmt.Errorf("%w: unknown order type %q", apperrors.ErrValidation, input.Type)
	}
	if input.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", apperrors.ErrValidation)
	}

	price, err := s.currentPrice()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}

	order := &models.Order{
		OrderNumber:   newOrderNumber(),
		Type:          input.Type,
		Quantity:      input.Quantity,
		CustomerID:    customerID,
		AssetID:       input.AssetID,
		PumpID:        input.PumpID,
		PricePerLitre: price,
		TotalAmount:   input.Quantity * price,
		Status:        string(models.OrderPending),
	}

	if err := s.orderRepo.CreateWithHistory(order, "Order created by customer"); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}

	job := queue.NewJob(queue.KindAssignDriver, order.ID)
	job.Lat, job.Lng = input.Lat, input.Lng
	if err := s.dispatch.Enqueue(ctx, job); err != nil {
		// The order is committed; losing the job silently would stall
		// dispatch, so shout. The order stays PENDING and visible.
		log.Printf("ERROR: failed to enqueue assign_driver for order %d (%s): %v",
			order.ID, order.OrderNumber, err)
	}

	return order, nil
}

func (s *orderService) currentPrice() (float64, error) {
	setting, err := s.pricingRepo.GetActive(models.PricePerLitreSetting)
	if err != nil {
		return 0, err
	}
	if setting == nil {
		return s.defaultPrice, nil
	}
	return setting.Value, nil
}

// UpdateStatus applies a manual transition (driver or admin action). The
// state graph is enforced in the same transaction that writes the status
// and its history row.
func (s *orderService) UpdateStatus(ctx context.Context, orderID, actorID uint, input UpdateStatusInput) (*models.Order, error) {
	if !models.ValidOrderStatus(input.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", apperrors.ErrValidation, input.Status)
	}

	if _, err := s.orderRepo.TransitionStatus(orderID, actorID, models.OrderStatus(input.Status), input.Remarks); err != nil {
		return nil, err
	}
	return s.orderRepo.GetByID(orderID)
}

func (s *orderService) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// ListOrders scopes results by role: customers see their own orders,
// drivers the orders assigned to them, admins everything.
func (s *orderService) ListOrders(ctx context.Context, userID uint, role string) ([]models.Order, error) {
	switch models.Role(role) {
	case models.RoleMainUser, models.RoleSubUser:
		return s.orderRepo.GetByCustomer(userID)
	case models.RoleDriver:
		driver, err := s.driverRepo.GetByUserID(userID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
		}
		if driver == nil {
			return []models.Order{}, nil
		}
		return s.orderRepo.GetByDriver(driver.ID)
	case models.RoleCRMAdmin, models.RoleSuperAdmin:
		return s.orderRepo.GetAll()
	default:
		return nil, apperrors.ErrAuthorization
	}
}
