package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"certmap/internal/api/handlers"
)

func SetupRouter(
	mappingHandler *handlers.MappingHandler,
	embeddingHandler *handlers.EmbeddingHandler,
	db *pgxpool.Pool,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := db.Ping(c.Context()); err != nil {
			appLogger.Error("Health check failed", zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unavailable",
			})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// API routes
	v1 := app.Group("/api/v1")

	content := v1.Group("/content/:id")
	content.Post("/mappings/suggest", mappingHandler.SuggestMappings)
	content.Post("/mappings/apply", mappingHandler.ApplyMappings)
	content.Post("/mappings", mappingHandler.AddManualMapping)
	content.Post("/mappings/:mappingID/primary", mappingHandler.SetPrimary)
	content.Get("/mappings/summary", mappingHandler.GetSummary)

	v1.Delete("/mappings/:id", mappingHandler.RemoveMapping)

	v1.Post("/certifications/:id/embeddings/generate", embeddingHandler.GenerateEmbeddings)

	return app
}
