package repository

import (
	"errors"

	"fuel_dispatch/internal/models"

	"gorm.io/gorm"
)

type DriverRepository interface {
	Create(driver *models.Driver) error
	GetByUserID(userID uint) (*models.Driver, error)
	FirstAvailable() (*models.Driver, error)
	CountOnline() (int64, error)
}

type driverRepository struct {
	db *gorm.DB
}

func NewDriverRepository(db *gorm.DB) DriverRepository {
	return &driverRepository{db: db}
}

func (r *driverRepository) Create(driver *models.Driver) error {
	return r.db.Create(driver).Error
}

func (r *driverRepository) GetByUserID(userID uint) (*models.Driver, error) {
	var driver models.Driver
	err := r.db.Where("user_id = ?", userID).First(&driver).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &driver, nil
}

// FirstAvailable returns the first online driver with a vehicle, or
// (nil, nil) when nobody is dispatchable. First-available policy, no
// distance ranking.
func (r *driverRepository) FirstAvailable() (*models.Driver, error) {
	var driver models.Driver
	err := r.db.
		Where("is_online = ? AND vehicle_number <> ''", true).
		Order("id").
		First(&driver).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &driver, nil
}

func (r *driverRepository) CountOnline() (int64, error) {
	var count int64
	err := r.db.Model(&models.Driver{}).Where("is_online = ?", true).Count(&count).Error
	return count, err
}
