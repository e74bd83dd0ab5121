package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chitfund-ledger/internal/adapters/http/middleware"
	"chitfund-ledger/internal/adapters/http/routes"
	"chitfund-ledger/internal/adapters/persistence/models"
	"chitfund-ledger/internal/config"
	"chitfund-ledger/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	// Seed the main account, loan tiers and initial admin
	if err := config.NewSeeder(db).Run(); err != nil {
		log.Printf("⚠️ Warning: Failed to seed data: %v", err)
	}

	// Proof image storage
	store, err := buildStore(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to init object storage: %v", err)
	}

	// Optional Redis, backs the job idempotency guard
	rdb := openRedis(cfg)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Chit Fund Ledger API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes; returns the cron service wired to the job layer
	cronService := routes.Setup(app, db, cfg, store, rdb)

	if err := cronService.Start(); err != nil {
		log.Fatalf("❌ Failed to start cron scheduler: %v", err)
	}
	defer cronService.Stop()

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// buildStore picks the object store from config
func buildStore(cfg *config.Config) (storage.ObjectStore, error) {
	if cfg.Storage.Driver == "gcs" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return storage.NewGCSStore(ctx, cfg.Storage.GCSBucket)
	}
	return storage.NewDiskStore(cfg.Storage.DiskRoot, cfg.Storage.DiskURL)
}

// openRedis connects to Redis when configured, otherwise returns nil
func openRedis(cfg *config.Config) *redis.Client {
	if !cfg.HasRedis() {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️ Warning: Redis unreachable, idempotency guard disabled: %v", err)
		return nil
	}

	log.Println("✅ Redis connected")
	return rdb
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
