package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"makerhub-api/internal/adapters/events"
	"makerhub-api/internal/adapters/http/middleware"
	"makerhub-api/internal/adapters/http/routes"
	"makerhub-api/internal/adapters/mailer"
	"makerhub-api/internal/adapters/paypack"
	"makerhub-api/internal/adapters/persistence/models"
	"makerhub-api/internal/adapters/storage"
	"makerhub-api/internal/config"
	"makerhub-api/internal/core/services"

	"github.com/gofiber/fiber/v2"
)

// @title MakerHub API
// @version 1.0
// @description Catalog, orders, returns and mobile-money payments for a 3D printing and design studio

// @contact.name API Support
// @contact.email support@makerhub.rw

// @BasePath /api/v1
// @schemes https http

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// uploads include videos up to 500 MB
const bodyLimit = 512 << 20

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	if err := config.NewSeeder(db).Run(); err != nil {
		log.Printf("⚠️ Warning: Failed to seed data: %v", err)
	}

	redisClient, err := config.ConnectRedis(cfg)
	if err != nil {
		log.Printf("⚠️ Redis unavailable, falling back to in-process token cache: %v", err)
	}
	var tokenCache paypack.TokenCache = paypack.NewMemoryTokenCache()
	if redisClient != nil {
		tokenCache = paypack.NewRedisTokenCache(redisClient, "")
		defer redisClient.Close()
	}

	gateway := paypack.NewClient(paypack.Config{
		BaseURL:      cfg.Paypack.BaseURL,
		ClientID:     cfg.Paypack.ClientID,
		ClientSecret: cfg.Paypack.ClientSecret,
	}, tokenCache)
	log.Printf("✅ Paypack client ready [MODE: %s]", cfg.Paypack.Mode)

	mediaStore, err := storage.New(cfg.Cloudinary)
	if err != nil {
		log.Fatalf("❌ Failed to initialise media storage: %v", err)
	}

	publisher, err := events.New(cfg.NATS.URL)
	if err != nil {
		log.Printf("⚠️ Events disabled: %v", err)
		publisher = events.Noop{}
	}
	defer publisher.Close()

	app := fiber.New(fiber.Config{
		AppName:      "MakerHub API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
		BodyLimit:    bodyLimit,
	})

	middleware.Setup(app, cfg)

	cron := routes.Setup(app, db, cfg, routes.Deps{
		Gateway:   gateway,
		Mailer:    mailer.New(cfg.SMTP),
		Storage:   mediaStore,
		Publisher: publisher,
		Redis:     redisClient,
	})
	if err := cron.Start(); err != nil {
		log.Fatalf("❌ Failed to start scheduler: %v", err)
	}

	go gracefulShutdown(app, cron)

	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown stops the scheduler first so no job runs against a closing server
func gracefulShutdown(app *fiber.App, cron *services.CronService) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	cron.Stop(ctx)

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
