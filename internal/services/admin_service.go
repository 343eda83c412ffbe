package services

import (
	"context"
	"fmt"

	"fuel_dispatch/internal/apperrors"
	"fuel_dispatch/internal/models"
	"fuel_dispatch/internal/repository"
)

type DashboardStats struct {
	Revenue      float64 `json:"revenue"`
	ActiveOrders int64   `json:"activeOrders"`
	Customers    int64   `json:"customers"`
	Drivers      int64   `json:"drivers"`
}

type AdminService interface {
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
}

type adminService struct {
	orderRepo  repository.OrderRepository
	userRepo   repository.UserRepository
	driverRepo repository.DriverRepository
}

func NewAdminService(
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	driverRepo repository.DriverRepository,
) AdminService {
	return &adminService{orderRepo: orderRepo, userRepo: userRepo, driverRepo: driverRepo}
}

// GetDashboardStats computes the rollups on demand. The four queries are
// independent; consistency is as-of-query-time only.
func (s *adminService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	revenue, err := s.orderRepo.RevenueCompleted()
	if err != nil {
		return nil, fmt.Errorf("%w: revenue query: %v", apperrors.ErrPersistence, err)
	}
	active, err := s.orderRepo.CountActive()
	if err != nil {
		return nil, fmt.Errorf("%w: active orders query: %v", apperrors.ErrPersistence, err)
	}
	customers, err := s.userRepo.CountByRole(string(models.RoleMainUser))
	if err != nil {
		return nil, fmt.Errorf("%w: customer count query: %v", apperrors.ErrPersistence, err)
	}
	drivers, err := s.driverRepo.CountOnline()
	if err != nil {
		return nil, fmt.Errorf("%w: driver count query: %v", apperrors.ErrPersistence, err)
	}

	return &DashboardStats{
		Revenue:      revenue,
		ActiveOrders: active,
		Customers:    customers,
		Drivers:      drivers,
	}, nil
}
