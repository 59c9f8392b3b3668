package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/streadway/amqp"

	"ormlab/internal/config"
	"ormlab/internal/database"
	"ormlab/internal/handlers"
	"ormlab/internal/middleware"
	"ormlab/internal/repositories"
	"ormlab/internal/services"
	"ormlab/pkg/logger"
	"ormlab/pkg/rabbitmq"
)

// buildApp wires the three storage adapter variants over one shared users
// table and mounts each behind its own route prefix. The returned cleanup
// releases the view store's prepared statements and the database handle.
func buildApp(cfg *config.Config, log logger.Logger, events services.EventPublisher) (*fiber.App, func(), error) {
	// Shared handle for the raw adapters; runs the schema bootstrap.
	sqlDB, err := database.Setup(cfg.DatabaseDSN, log)
	if err != nil {
		return nil, nil, err
	}

	gormDB, err := database.OpenGORM(cfg.DatabaseDSN)
	if err != nil {
		sqlDB.Close()
		return nil, nil, err
	}

	// The view store's projection must be declared before the store is
	// built; this is the registration step, distinct from any query.
	registry := repositories.NewProjectionRegistry()
	if err := registry.Declare(repositories.UserSummaryView, "id", "username", "created_at"); err != nil {
		sqlDB.Close()
		return nil, nil, err
	}

	viewStore, err := repositories.NewViewUserStore(sqlDB, registry, log)
	if err != nil {
		sqlDB.Close()
		return nil, nil, err
	}

	sqlStore := repositories.NewSQLUserStore(sqlDB, log)
	gormStore := repositories.NewGORMUserStore(gormDB)

	variants := []struct {
		prefix  string
		service *services.UserService
	}{
		{"/sql/users", services.NewUserService("sql", sqlStore, log, events)},
		{"/gorm/users", services.NewUserService("gorm", gormStore, log, events)},
		{"/view/users", services.NewUserService("view", viewStore, log, events)},
	}

	app := fiber.New()
	app.Use(middleware.RequestID())
	app.Use(fiberlogger.New())

	apiV1 := app.Group("/api/v1")
	for _, v := range variants {
		handlers.NewUserHandler(v.service, log).RegisterRoutes(apiV1, v.prefix)
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	cleanup := func() {
		if err := viewStore.Close(); err != nil {
			log.Warn("failed to close view store", map[string]interface{}{"error": err.Error()})
		}
		if err := sqlDB.Close(); err != nil {
			log.Warn("failed to close database", map[string]interface{}{"error": err.Error()})
		}
	}
	return app, cleanup, nil
}

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, os.Stdout)

	// Events are optional: an empty broker URL runs the service without
	// a RabbitMQ connection at all.
	var events services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Fatal("failed to initialize RabbitMQ client", map[string]interface{}{"error": err.Error()})
		}
		defer mqClient.Close()
		events = mqClient

		if err := mqClient.ConsumeUserEvents(func(msg amqp.Delivery) error {
			log.Info("user event received", map[string]interface{}{"body": string(msg.Body)})
			return nil
		}); err != nil {
			log.Warn("failed to start user event consumer", map[string]interface{}{"error": err.Error()})
		}
	}

	app, cleanup, err := buildApp(cfg, log, events)
	if err != nil {
		log.Fatal("failed to build application", map[string]interface{}{"error": err.Error()})
	}
	defer cleanup()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("starting server", map[string]interface{}{"port": cfg.AppPort})
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatal("server failed to start", map[string]interface{}{"error": err.Error()})
		}
	}()

	<-quit
	log.Info("shutting down server", nil)

	if err := app.Shutdown(); err != nil {
		log.Error("error during shutdown", map[string]interface{}{"error": err.Error()})
	}

	log.Info("server gracefully stopped", nil)
}
