package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"cloud-storage-api/internal/config"
	"cloud-storage-api/internal/constants"
	"cloud-storage-api/internal/database"
	"cloud-storage-api/internal/handlers"
	"cloud-storage-api/internal/middleware"
	"cloud-storage-api/internal/realtime"
	"cloud-storage-api/internal/routes"
	"cloud-storage-api/internal/services"
	"cloud-storage-api/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	pkgConfig "github.com/kerimovok/go-pkg-utils/config"
	pkgValidator "github.com/kerimovok/go-pkg-utils/validator"
)

func init() {
	// Load all configs
	if err := config.LoadConfig(); err != nil {
		log.Fatalf("failed to load configs: %v", err)
	}

	// Validate environment variables
	if err := pkgValidator.ValidateConfig(constants.EnvValidationRules); err != nil {
		log.Fatalf("configuration validation failed: %v", err)
	}

	// Connect to database
	if err := database.ConnectDB(); err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
}

func setupApp() *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: 100 * 1024 * 1024, // 100MB limit for file uploads
	})

	// Middleware
	app.Use(helmet.New())
	app.Use(cors.New())
	app.Use(compress.New())
	app.Use(healthcheck.New())
	app.Use(requestid.New(requestid.Config{
		Generator: func() string {
			return uuid.New().String()
		},
	}))
	app.Use(logger.New())

	return app
}

func main() {
	appLog := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.GetConfig().Storage

	// Stores and services
	fileStore := store.NewFileStore(database.DB)
	userStore := store.NewUserStore(database.DB)
	blobs := services.NewBlobStore(cfg.Storage)
	hub := realtime.NewHub(appLog)
	fileService := services.NewFileService(fileStore, blobs, hub, config.Retention(), appLog)

	// Background expiry sweep
	if cfg.Cleanup.Enabled {
		sweeper := services.NewSweeper(fileService, config.SweepInterval(), appLog)
		sweeper.Start(ctx)
	}

	// Setup Fiber app
	app := setupApp()

	// Setup routes
	auth := middleware.NewAuth(userStore)
	userHandler := handlers.NewUserHandler(userStore, fileService, auth)
	fileHandler := handlers.NewFileHandler(fileService, fileStore)
	realtimeHandler := handlers.NewRealtimeHandler(hub, cfg.Realtime.SendBuffer, appLog)
	routes.SetupRoutes(app, auth, userHandler, fileHandler, realtimeHandler)

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Gracefully shutting down...")
		cancel()

		// Shutdown the server
		if err := app.Shutdown(); err != nil {
			log.Printf("error during server shutdown: %v", err)
		}

		log.Println("Server gracefully stopped")
		os.Exit(0)
	}()

	// Start server
	if err := app.Listen(":" + pkgConfig.GetEnv("PORT")); err != nil && err != http.ErrServerClosed {
		log.Fatalf("failed to start server: %v", err)
	}
}
