package main

import (
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/example/foodlink/internal/config"
	"github.com/example/foodlink/internal/database"
	"github.com/example/foodlink/internal/handlers"
	"github.com/example/foodlink/internal/logger"
	"github.com/example/foodlink/internal/middleware"
	"github.com/example/foodlink/internal/routes"
)

func main() {
	cfg := config.Load()

	log := logger.Init(cfg)
	defer log.Sync()

	db := database.Connect(cfg.DatabaseURL)

	app := fiber.New(fiber.Config{
		AppName:      "FoodLink Backend",
		ErrorHandler: handlers.NewErrorHandler(cfg),
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(middleware.Metrics())

	routes.Register(app, db, cfg)

	log.Info("starting server", zap.String("port", cfg.AppPort), zap.String("env", cfg.Env))
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatal("fiber.Listen error", zap.Error(err))
	}
}
