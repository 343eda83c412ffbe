package repository

import (
	"errors"

	"fuel_dispatch/internal/models"

	"gorm.io/gorm"
)

type PricingRepository interface {
	GetActive(name string) (*models.PricingSetting, error)
	Upsert(setting *models.PricingSetting) error
}

type pricingRepository struct {
	db *gorm.DB
}

func NewPricingRepository(db *gorm.DB) PricingRepository {
	return &pricingRepository{db: db}
}

func (r *pricingRepository) GetActive(name string) (*models.PricingSetting, error) {
	var setting models.PricingSetting
	err := r.db.Where("name = ? AND is_active = ?", name, true).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

func (r *pricingRepository) Upsert(setting *models.PricingSetting) error {
	existing, err := r.GetActive(setting.Name)
	if err != nil {
		return err
	}
	if existing != nil {
		existing.Value = setting.Value
		return r.db.Save(existing).Error
	}
	return r.db.Create(setting).Error
}
