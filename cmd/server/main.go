package main

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"isilan_app_echo/internal/config"
	"isilan_app_echo/internal/handlers"
	appMiddleware "isilan_app_echo/internal/middleware"
	"isilan_app_echo/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	// Firebase is the system of record; without it nothing works.
	firebaseClients, err := services.InitFirebase(ctx, cfg)
	if err != nil {
		log.Fatalf("Firebase initialization failed: %v", err)
	}
	store := services.NewFirebaseStore(firebaseClients.DB)

	// Postgres only backs the callback audit trail here; the server
	// stays up without it.
	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		db, err = services.InitDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := services.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to run database migrations: %v", err)
		}
	} else {
		log.Println("Warning: DATABASE_URL not set, callback audit trail disabled")
	}

	var cache *services.RedisCache
	if cfg.RedisURL != "" {
		cache, err = services.NewRedisCache(cfg.RedisURL)
		if err != nil {
			log.Printf("Warning: Redis initialization failed, caching disabled: %v", err)
		}
	}

	paytrClient := services.NewPayTRClient(cfg)
	emailService := services.NewEmailService(cfg)
	paymentService := services.NewPaymentService(store, paytrClient, emailService)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = appMiddleware.CustomErrorHandler

	// Initialize handlers
	paymentHandler := handlers.NewPaymentHandler(paymentService, db)
	jobHandler := handlers.NewJobHandler(store, cache)

	// Gateway webhook. Registered for every method so the handler owns
	// the 405 contract PayTR's retry logic expects.
	e.Any("/api/paytr/callback", paymentHandler.PayTRCallback)

	// Public routes
	e.GET("/api/packages", paymentHandler.Packages)
	e.GET("/api/jobs/premium", jobHandler.ListPremiumJobs)
	e.GET("/api/jobs/:id", jobHandler.GetJob)

	// Protected routes
	protected := e.Group("/api")
	protected.Use(appMiddleware.RequireAuth(firebaseClients.Auth))
	protected.POST("/payments", paymentHandler.CreatePayment)
	protected.GET("/payments/:merchantOid", paymentHandler.PaymentStatus)

	log.Printf("Server starting on port %s", cfg.Port)
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
