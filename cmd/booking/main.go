package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/tablebook/reservation-app/config"
	"github.com/tablebook/reservation-app/events"
	"github.com/tablebook/reservation-app/models"
	"github.com/tablebook/reservation-app/router"
	"github.com/tablebook/reservation-app/services"
	"github.com/tablebook/reservation-app/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}
	utils.InitLogger()

	cfg := config.FromEnv("8080", "booking.db")

	db, err := cfg.OpenDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	utils.InitDB(db)
	autoMigrate(db)

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	hub := events.NewHub()
	inventoryClient := services.NewInventoryClient(cfg.InventoryBaseURL, cfg.RemoteTimeout)
	reservationStore := services.NewGormReservationStore(db)

	booking := services.NewBookingService(
		reservationStore,
		services.NewGormCustomerStore(db),
		inventoryClient,
		inventoryClient,
		hub,
		services.BookingConfig{RemoteTimeout: cfg.RemoteTimeout},
		utils.InfoLogger,
	)

	monitor := services.NewReservationMonitor(booking, reservationStore, utils.InfoLogger)
	monitor.Start()
	defer monitor.Stop()

	r := router.SetupRouter(booking, hub)

	utils.InfoLogger.Printf("Booking service listening on port %s (inventory at %s)",
		cfg.Port, cfg.InventoryBaseURL)
	if err := r.Run(":" + cfg.Port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func autoMigrate(db *gorm.DB) {
	if err := db.AutoMigrate(
		&models.Customer{},
		&models.Reservation{},
	); err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
}
