package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ndolgov/moex-analyzer/internal/api"
	"github.com/ndolgov/moex-analyzer/internal/config"
	"github.com/ndolgov/moex-analyzer/internal/moex"
	"github.com/ndolgov/moex-analyzer/internal/service"
	"github.com/ndolgov/moex-analyzer/internal/storage/cache"
	"github.com/ndolgov/moex-analyzer/internal/storage/postgres"
	pkglogger "github.com/ndolgov/moex-analyzer/pkg/logger"
)

// @title MOEX Bond Analyzer API
// @version 1.0
// @description Bond screening and futures candle API over MOEX ISS data

// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
func main() {
	cfg := config.Load()

	if err := pkglogger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Fatal("logger init failed:", err)
	}
	defer pkglogger.Close()

	db, err := connectPostgres(cfg)
	if err != nil {
		log.Fatal("postgres connection failed:", err)
	}
	defer db.Close()

	cacheService := connectRedis(cfg)
	if cacheService != nil {
		defer cacheService.Close()
	}

	issClient := moex.NewClient(cfg.MoexBaseURL, cfg.MoexTimeout, cfg.MoexPageSize)
	candleStore := postgres.NewCandleStore(db.Pool())

	// Services
	searchService := service.NewBondSearchService(issClient, cacheService, cfg.EnrichWorkers)
	candlesService := service.NewCandlesService(issClient, candleStore)

	// Handler
	handler := api.NewHandler(
		db,
		cacheService,
		searchService,
		candlesService,
		candleStore,
		cfg.DefaultLimit,
	)

	// Fiber app
	app := fiber.New(fiber.Config{
		Prefork:                 false,
		ServerHeader:            "MOEX-Analyzer",
		DisableStartupMessage:   false,
		AppName:                 "MOEX Bond Analyzer v1.0.0",
		ReadTimeout:             cfg.APIReadTimeout,
		WriteTimeout:            cfg.APIWriteTimeout,
		IdleTimeout:             120 * time.Second,
		ReadBufferSize:          8192,
		WriteBufferSize:         8192,
		CompressedFileSuffix:    ".gz",
		ProxyHeader:             "X-Forwarded-For",
		EnableTrustedProxyCheck: true,
		BodyLimit:               10 * 1024 * 1024, // 10MB
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Setup routes
	api.SetupRoutes(app, handler, cfg.AdminUser, cfg.AdminPassword)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		if err := app.Shutdown(); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	log.Printf("Starting server on %s", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatal("Server error:", err)
	}
}

func connectPostgres(cfg *config.Config) (*postgres.DB, error) {
	db, err := postgres.NewDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.HealthCheck(ctx); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	log.Println("connected to PostgreSQL")
	return db, nil
}

func connectRedis(cfg *config.Config) *cache.RedisCache {
	redisCache, err := cache.NewRedisCache(cfg.RedisURL, cfg.CacheTTL)
	if err != nil {
		log.Printf("redis unavailable: %v (continuing without cache)", err)
		return nil
	}

	log.Println("connected to Redis")
	return redisCache
}
