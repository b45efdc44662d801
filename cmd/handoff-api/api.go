// Package main provides the Handoff API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/handofflabs/handoff/pkg/eventbus"
	"github.com/handofflabs/handoff/pkg/persistence"
	"github.com/handofflabs/handoff/pkg/services"
	"github.com/handofflabs/handoff/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	deliveryService := services.NewDelivery(a.persistence, a.eventBus, a.logger)
	workItemService := services.NewWorkItem(a.persistence)

	handlers := web.NewAPIHandlers(deliveryService, workItemService, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Handoff API")
	})

	w := app.Group("/work-items")
	w.Get("/", handlers.GetWorkItems)
	w.Post("/", handlers.CreateWorkItem)
	w.Get("/:id", handlers.GetWorkItem)
	w.Get("/:id/history", handlers.GetWorkItemHistory)
	w.Get("/:id/permissions", handlers.GetPermissions)
	w.Patch("/:id/status", handlers.UpdateLifecycle)

	// Workflow transitions:
	w.Post("/:id/delivery", handlers.SubmitDelivery)
	w.Post("/:id/approval", handlers.ApproveDelivery)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
