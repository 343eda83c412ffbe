package main

import (
	"log"

	"fuel_dispatch/internal/config"
	"fuel_dispatch/internal/database"
	"fuel_dispatch/internal/migrations"
	"fuel_dispatch/internal/models"
	"fuel_dispatch/internal/repository"
)

// Standalone bootstrap: migrates the schema and seeds demo data so the
// dispatch pipeline has something to assign. Run with:
//
//	go run ./scripts
func main() {
	cfg := config.Load()

	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := migrations.RunMigrations(db, cfg.DefaultPricePerLitre); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	userRepo := repository.NewUserRepository(db)
	driverRepo := repository.NewDriverRepository(db)

	// Super admin for the CRM dashboard.
	admin, err := userRepo.GetByPhone("9999999999")
	if err != nil {
		log.Fatal("Failed to look up admin:", err)
	}
	if admin == nil {
		admin = &models.User{
			Phone: "9999999999",
			Name:  "Platform Admin",
			Role:  string(models.RoleSuperAdmin),
		}
		if err := userRepo.Create(admin); err != nil {
			log.Fatal("Failed to create admin:", err)
		}
		log.Println("Created super admin (phone 9999999999)")
	}

	// One online demo driver with a vehicle.
	driverUser, err := userRepo.GetByPhone("8888888888")
	if err != nil {
		log.Fatal("Failed to look up demo driver:", err)
	}
	if driverUser == nil {
		driverUser = &models.User{
			Phone: "8888888888",
			Name:  "Demo Driver",
			Role:  string(models.RoleDriver),
		}
		if err := userRepo.Create(driverUser); err != nil {
			log.Fatal("Failed to create demo driver user:", err)
		}
		driver := &models.Driver{
			UserID:        driverUser.ID,
			VehicleNumber: "KA01AB1234",
			IsOnline:      true,
		}
		if err := driverRepo.Create(driver); err != nil {
			log.Fatal("Failed to create demo driver profile:", err)
		}
		log.Println("Created online demo driver (phone 8888888888)")
	}

	log.Println("Database initialized")
}
