package main

import (
	"context"
	"time"

	"werkstatt-backend/config"
	"werkstatt-backend/controllers"
	"werkstatt-backend/database"
	"werkstatt-backend/middlewares"
	"werkstatt-backend/routes"
	"werkstatt-backend/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func main() {
	cfg := config.Load()
	log := config.NewLogger(cfg.LogLevel)

	// ---- Database
	db, err := database.Connect(cfg, log, 5)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("migration failed")
	}

	// ---- Optional redis lock for in-flight idempotency keys
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	locker, err := database.NewRedisLocker(ctx, cfg.RedisAddress, cfg.RedisPassword)
	cancel()
	if err != nil {
		log.WithError(err).Warn("redis unavailable; idempotency keys use the database only")
		locker = nil
	}

	auth, err := middlewares.NewAuth(cfg.JWTSecret)
	if err != nil {
		log.WithError(err).Fatal("auth not configured")
	}

	svc := services.New(db, services.Options{Logger: log, PhoneRegion: cfg.DefaultPhoneRegion})

	// ---- Fiber app with global error handler + body limit
	app := fiber.New(fiber.Config{
		ErrorHandler: middlewares.NewErrorHandler(log),
		BodyLimit:    cfg.BodyLimitBytes,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: false, // using Bearer tokens, not cookies
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Idempotency-Key",
	}))

	// Default KeyGenerator = client IP
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: cfg.RateLimitWindow,
	}))

	routes.Register(app, routes.Deps{
		DB:         db,
		Auth:       auth,
		Locker:     locker,
		Logger:     log,
		Controller: controllers.New(svc),
	})

	log.WithField("port", cfg.Port).Info("API server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
