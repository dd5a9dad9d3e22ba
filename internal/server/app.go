package server

import (
	"imovelhub/internal/config"
	"imovelhub/internal/database"
	"imovelhub/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// CreateApp builds the Fiber app with all global middleware and route
// registration, backed by the configured database (in-memory sqlite when no
// DSN is set).
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, nil, err
	}

	app := NewApp(db, cfg.FrontendURLEndsWith)
	return app, db, nil
}

// NewApp wires routes onto an already-open database. Tests use this
// directly with their own in-memory DB.
func NewApp(db *gorm.DB, corsSuffix string) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler,
	})

	app.Use(middleware.CORS(corsSuffix))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	h := &Handlers{Service: &Service{DB: db}}

	app.Get("/health/json", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")
	api.Get("/public/:token", h.PublicCollection)

	collections := api.Group("/collections")
	collections.Get("/", h.ListCollections)
	collections.Post("/", h.CreateCollection)
	collections.Patch("/:id", h.UpdateCollection)
	collections.Delete("/:id", h.DeleteCollection)
	collections.Get("/:id/listings", h.ListListings)
	collections.Post("/:id/listings", h.CreateListing)
	collections.Patch("/:id/listings/:listingId", h.UpdateListing)
	collections.Delete("/:id/listings/:listingId", h.DeleteListing)

	return app
}
