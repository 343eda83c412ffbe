package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"fuel_dispatch/internal/apperrors"
	"fuel_dispatch/internal/models"
	"fuel_dispatch/internal/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// Mock: OrderRepository
// =====================

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) CreateWithHistory(order *models.Order, remarks string) error {
	args := m.Called(order, remarks)
	order.ID = 10
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(id uint) (*models.Order, error) {
	args := m.Called(id)
	o, _ := args.Get(0).(*models.Order)
	return o, args.Error(1)
}

func (m *MockOrderRepository) GetByCustomer(customerID uint) ([]models.Order, error) {
	args := m.Called(customerID)
	o, _ := args.Get(0).([]models.Order)
	return o, args.Error(1)
}

func (m *MockOrderRepository) GetByDriver(driverID uint) ([]models.Order, error) {
	args := m.Called(driverID)
	o, _ := args.Get(0).([]models.Order)
	return o, args.Error(1)
}

func (m *MockOrderRepository) GetAll() ([]models.Order, error) {
	args := m.Called()
	o, _ := args.Get(0).([]models.Order)
	return o, args.Error(1)
}

func (m *MockOrderRepository) TransitionStatus(orderID, actorID uint, newStatus models.OrderStatus, remarks string) (*models.Order, error) {
	args := m.Called(orderID, actorID, newStatus, remarks)
	o, _ := args.Get(0).(*models.Order)
	return o, args.Error(1)
}

func (m *MockOrderRepository) AssignDriver(orderID, driverID uint) (bool, error) {
	args := m.Called(orderID, driverID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) RevenueCompleted() (float64, error) {
	args := m.Called()
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockOrderRepository) CountActive() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

// ======================
// Mock: DriverRepository
// ======================

type MockDriverRepository struct {
	mock.Mock
}

func (m *MockDriverRepository) Create(driver *models.Driver) error {
	args := m.Called(driver)
	return args.Error(0)
}

func (m *MockDriverRepository) GetByUserID(userID uint) (*models.Driver, error) {
	args := m.Called(userID)
	d, _ := args.Get(0).(*models.Driver)
	return d, args.Error(1)
}

func (m *MockDriverRepository) FirstAvailable() (*models.Driver, error) {
	args := m.Called()
	d, _ := args.Get(0).(*models.Driver)
	return d, args.Error(1)
}

func (m *MockDriverRepository) CountOnline() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

// =======================
// Mock: PricingRepository
// =======================

type MockPricingRepository struct {
	mock.Mock
}

func (m *MockPricingRepository) GetActive(name string) (*models.PricingSetting, error) {
	args := m.Called(name)
	s, _ := args.Get(0).(*models.PricingSetting)
	return s, args.Error(1)
}

func (m *MockPricingRepository) Upsert(setting *models.PricingSetting) error {
	args := m.Called(setting)
	return args.Error(0)
}

// ====================
// Mock: DispatchQueue
// ====================

type MockQueue struct {
	mock.Mock
}

func (m *MockQueue) Enqueue(ctx context.Context, job *queue.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockQueue) EnqueueAfter(ctx context.Context, job *queue.Job, delay time.Duration) error {
	args := m.Called(ctx, job, delay)
	return args.Error(0)
}

func (m *MockQueue) DeadLetter(ctx context.Context, job *queue.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockQueue) Dequeue(ctx context.Context, consumer string, timeout time.Duration) (*queue.Job, error) {
	args := m.Called(ctx, consumer, timeout)
	j, _ := args.Get(0).(*queue.Job)
	return j, args.Error(1)
}

func (m *MockQueue) Ack(ctx context.Context, consumer string, job *queue.Job) error {
	args := m.Called(ctx, consumer, job)
	return args.Error(0)
}

func (m *MockQueue) Recover(ctx context.Context, consumer string) (int, error) {
	args := m.Called(ctx, consumer)
	return args.Int(0), args.Error(1)
}

func (m *MockQueue) PromoteDue(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func newTestOrderService(orderRepo *MockOrderRepository, driverRepo *MockDriverRepository, pricingRepo *MockPricingRepository, q *MockQueue) OrderService {
	return NewOrderService(orderRepo, driverRepo, pricingRepo, q, 95.5)
}

func TestCreateOrder_RejectsInvalidInput(t *testing.T) {
	orderRepo := new(MockOrderRepository)
	svc := newTestOrderService(orderRepo, new(MockDriverRepository), new(MockPricingRepository), new(MockQueue))

	tests := []struct {
		name  string
		input CreateOrderInput
	}{
		{"zero quantity", CreateOrderInput{Type: "DOORSTEP", Quantity: 0}},
		{"negative quantity", CreateOrderInput{Type: "DOORSTEP", Quantity: -10}},
		{"unknown type", CreateOrderInput{Type: "AIRDROP", Quantity: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateOrder(context.Background(), 1, tt.input)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}

	// Validation failures never touch the store.
	orderRepo.AssertNotCalled(t, "CreateWithHistory", mock.Anything, mock.Anything)
}

func TestCreateOrder_ComputesTotalFromPricing(t *testing.T) {
	orderRepo := new(MockOrderRepository)
	pricingRepo := new(MockPricingRepository)
	q := new(MockQueue)
	svc := newTestOrderService(orderRepo, new(MockDriverRepository), pricingRepo, q)

	pricingRepo.On("GetActive", models.PricePerLitreSetting).
		Return(&models.PricingSetting{Name: models.PricePerLitreSetting, Value: 100.0, IsActive: true}, nil)
	orderRepo.On("CreateWithHistory", mock.AnythingOfType("*models.Order"), "Order created by customer").Return(nil)
	q.On("Enqueue", mock.Anything, mock.AnythingOfType("*queue.Job")).Return(nil)

	order, err := svc.CreateOrder(context.Background(), 5, CreateOrderInput{Type: "DOORSTEP", Quantity: 100})
	assert.NoError(t, err)
	assert.Equal(t, string(models.OrderPending), order.Status)
	assert.Equal(t, 100.0, order.PricePerLitre)
	assert.Equal(t, 10000.0, order.TotalAmount)
	assert.Equal(t, uint(5), order.CustomerID)

	q.AssertCalled(t, "Enqueue", mock.Anything, mock.MatchedBy(func(job *queue.Job) bool {
		return job.Kind == queue.KindAssignDriver && job.OrderID == order.ID
	}))
}

func TestCreateOrder_FallsBackToDefaultPrice(t *testing.T) {
	orderRepo := new(MockOrderRepository)
	pricingRepo := new(MockPricingRepository)
	q := new(MockQueue)
	svc := newTestOrderService(orderRepo, new(MockDriverRepository), pricingRepo, q)

	pricingRepo.On("GetActive", models.PricePerLitreSetting).Return(nil, nil)
	orderRepo.On("CreateWithHistory", mock.Anything, mock.Anything).Return(nil)
	q.On("Enqueue", mock.Anything, mock.Anything).Return(nil)

	order, err := svc.CreateOrder(context.Background(), 1, CreateOrderInput{Type: "AT_PUMP", Quantity: 10})
	assert.NoError(t, err)
	assert.Equal(t, 95.5, order.PricePerLitre)
	assert.Equal(t, 955.0, order.TotalAmount)
}

func TestCreateOrder_EnqueueFailureKeepsOrder(t *testing.T) {
	orderRepo := new(MockOrderRepository)
	pricingRepo := new(MockPricingRepository)
	q := new(MockQueue)
	svc := newTestOrderService(orderRepo, new(MockDriverRepository), pricingRepo, q)

	pricingRepo.On("GetActive", mock.Anything).Return(nil, nil)
	orderRepo.On("CreateWithHistory", mock.Anything, mock.Anything).Return(nil)
	q.On("Enqueue", mock.Anything, mock.Anything).Return(assert.AnError)

	// The committed order is returned even when the enqueue fails.
	order, err := svc.CreateOrder(context.Background(), 1, CreateOrderInput{Type: "DOORSTEP", Quantity: 50})
	assert.NoError(t, err)
	assert.NotNil(t, order)
}

func TestNewOrderNumber_FormatAndUniqueness(t *testing.T) {
	re := regexp.MustCompile(`^FD-\d{8}-[0-9A-F]{8}$`)
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		num := newOrderNumber()
		assert.Regexp(t, re, num)
		assert.False(t, seen[num], "duplicate order number %s", num)
		seen[num] = true
	}
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	svc := newTestOrderService(new(MockOrderRepository), new(MockDriverRepository), new(MockPricingRepository), new(MockQueue))

	_, err := svc.UpdateStatus(context.Background(), 1, 1, UpdateStatusInput{Status: "SHIPPED"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestUpdateStatus_PropagatesInvalidTransition(t *testing.T) {
	orderRepo := new(MockOrderRepository)
	svc := newTestOrderService(orderRepo, new(MockDriverRepository), new(MockPricingRepository), new(MockQueue))

	orderRepo.On("TransitionStatus", uint(1), uint(2), models.OrderPending, "").
		Return(nil, apperrors.ErrInvalidTransition)

	_, err := svc.UpdateStatus(context.Background(), 1, 2, UpdateStatusInput{Status: "PENDING"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestListOrders_RoleScoping(t *testing.T) {
	orderRepo := new(MockOrderRepository)
	driverRepo := new(MockDriverRepository)
	svc := newTestOrderService(orderRepo, driverRepo, new(MockPricingRepository), new(MockQueue))

	t.Run("customer sees own orders", func(t *testing.T) {
		orderRepo.On("GetByCustomer", uint(1)).Return([]models.Order{{ID: 1}}, nil).Once()
		orders, err := svc.ListOrders(context.Background(), 1, string(models.RoleMainUser))
		assert.NoError(t, err)
		assert.Len(t, orders, 1)
	})

	t.Run("driver sees assigned orders", func(t *testing.T) {
		driverRepo.On("GetByUserID", uint(2)).Return(&models.Driver{ID: 9, UserID: 2}, nil).Once()
		orderRepo.On("GetByDriver", uint(9)).Return([]models.Order{{ID: 4}, {ID: 5}}, nil).Once()
		orders, err := svc.ListOrders(context.Background(), 2, string(models.RoleDriver))
		assert.NoError(t, err)
		assert.Len(t, orders, 2)
	})

	t.Run("driver without profile sees nothing", func(t *testing.T) {
		driverRepo.On("GetByUserID", uint(3)).Return(nil, nil).Once()
		orders, err := svc.ListOrders(context.Background(), 3, string(models.RoleDriver))
		assert.NoError(t, err)
		assert.Empty(t, orders)
	})

	t.Run("admin sees everything", func(t *testing.T) {
		orderRepo.On("GetAll").Return([]models.Order{{ID: 1}, {ID: 2}, {ID: 3}}, nil).Once()
		orders, err := svc.ListOrders(context.Background(), 4, string(models.RoleSuperAdmin))
		assert.NoError(t, err)
		assert.Len(t, orders, 3)
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		_, err := svc.ListOrders(context.Background(), 5, "INTERN")
		assert.ErrorIs(t, err, apperrors.ErrAuthorization)
	})
}
