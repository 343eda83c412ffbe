package migrations

import (
	"log"

	"fuel_dispatch/internal/models"
	"fuel_dispatch/internal/repository"

	"gorm.io/gorm"
)

// RunMigrations migrates the schema and seeds the default data the
// platform cannot run without.
func RunMigrations(db *gorm.DB, defaultPricePerLitre float64) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&models.Driver{},
		&models.Order{},
		&models.OrderStatusHistory{},
		&models.RefreshToken{},
		&models.PricingSetting{},
	)
	if err != nil {
		return err
	}

	if err := seedDefaults(db, defaultPricePerLitre); err != nil {
		log.Printf("Warning: failed to seed default data: %v", err)
	}

	log.Println("Database migrations completed")
	return nil
}

func seedDefaults(db *gorm.DB, defaultPricePerLitre float64) error {
	pricingRepo := repository.NewPricingRepository(db)

	setting, err := pricingRepo.GetActive(models.PricePerLitreSetting)
	if err != nil {
		return err
	}
	if setting == nil {
		log.Printf("Seeding %s = %.2f", models.PricePerLitreSetting, defaultPricePerLitre)
		return pricingRepo.Upsert(&models.PricingSetting{
			Name:     models.PricePerLitreSetting,
			Value:    defaultPricePerLitre,
			IsActive: true,
		})
	}
	return nil
}
