package main

import (
	"itr_flow_app_go/config"
	"itr_flow_app_go/db"
	"itr_flow_app_go/handlers"
	"itr_flow_app_go/models"
	"itr_flow_app_go/services"
	"log"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	database, err := db.Open(cfg.DBPath, cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close(database)

	// Run migrations
	if err := db.AutoMigrate(database,
		&models.User{},
		&models.Session{},
		&models.Customer{},
		&models.Case{},
		&models.CaseFlow{},
		&models.RejectionEntry{},
		&models.CaseAssignment{},
		&models.CaseDocument{},
		&models.Wallet{},
		&models.WalletTransaction{},
		&models.Notification{},
		&models.AuditLog{},
	); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Build collaborators and the workflow engine
	storage := services.NewStorage(cfg)
	email := services.NewEmailService(cfg)
	notifier := services.NewNotificationService(database, email)
	engine := services.NewWorkflowEngine(database, notifier)

	// Create Echo instance
	e := echo.New()
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: true,
	}))

	server := handlers.NewServer(database, engine, storage, notifier, cfg)
	server.RegisterRoutes(e)

	log.Printf("Starting server on port %s (%s)", cfg.ServerPort, cfg.Environment)
	if err := e.Start(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
