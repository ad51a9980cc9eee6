package routes

import (
	"time"

	"cloud-storage-api/internal/handlers"
	"cloud-storage-api/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/monitor"
)

func SetupRoutes(
	app *fiber.App,
	auth *middleware.Auth,
	userHandler *handlers.UserHandler,
	fileHandler *handlers.FileHandler,
	realtimeHandler *handlers.RealtimeHandler,
) {
	// Monitor route
	app.Get("/metrics", monitor.New())

	// Health check route
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "healthy",
			"service":   "cloud-storage-api",
			"timestamp": time.Now().UTC(),
		})
	})

	// API routes group
	api := app.Group("/api")
	v1 := api.Group("/v1")

	// Authentication routes
	authGroup := v1.Group("/auth")
	authGroup.Post("/register", userHandler.Register)
	authGroup.Post("/login", userHandler.Login)

	// User routes
	users := v1.Group("/users", auth.Protected())
	users.Get("/me", userHandler.Me)
	users.Put("/me", userHandler.UpdateMe)
	users.Post("/me/password", userHandler.ChangePassword)
	users.Delete("/:id", userHandler.DeleteUser)

	// File routes
	files := v1.Group("/files", auth.Protected())
	files.Post("/", fileHandler.UploadFile)
	files.Get("/", fileHandler.ListFiles)
	files.Get("/:id", fileHandler.GetFile)
	files.Get("/:id/download", fileHandler.DownloadFile)
	files.Get("/:id/share", fileHandler.ShareLink)
	files.Put("/:id", fileHandler.UpdateFile)
	files.Delete("/:id", fileHandler.DeleteFile)

	// Public shared-link download; the opaque token is the only credential
	app.Get("/download/:token", fileHandler.DownloadShared)

	// Realtime file-update notifications
	app.Get("/ws/files", auth.WebsocketAuth(), realtimeHandler.Handle())
}
