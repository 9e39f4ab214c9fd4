package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/commune-app/backend/bootstrap"
	"github.com/commune-app/backend/config"
	"github.com/commune-app/backend/database"
	"github.com/commune-app/backend/internal/middleware"
	"github.com/commune-app/backend/internal/routes"
)

func main() {
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	client := database.ConnectMongo(cfg.MongoURI)
	defer database.DisconnectMongo(client)
	db := client.Database(cfg.MongoDB)

	if err := bootstrap.EnsureIndexes(context.Background(), db); err != nil {
		log.Fatalf("ensure indexes failed: %v", err)
	}

	app := fiber.New()

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: func() string { return uuid.NewString() },
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.JWTUserID(cfg.JWTSecret))

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })

	routes.Register(app, routes.Deps{
		DB:        db,
		JWTSecret: cfg.JWTSecret,
		Logger:    logger,
	})

	logger.Info("listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
