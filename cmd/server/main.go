package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/voltswap/battery-swap-api/internal/config"     // Internal config loader
	"github.com/voltswap/battery-swap-api/internal/database"   // MySQL connection
	"github.com/voltswap/battery-swap-api/internal/handler"    // HTTP handlers
	"github.com/voltswap/battery-swap-api/internal/middleware" // Rate limiting and caching
	"github.com/voltswap/battery-swap-api/internal/queue"      // Background broker consumer
	"github.com/voltswap/battery-swap-api/internal/repository" // Data access layer
	"github.com/voltswap/battery-swap-api/internal/router"     // Route registration
)

func main() {
	// Load .env when present; real deployments set the environment
	// directly and the file is simply absent.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the rate limiter and the response cache.  A nil
	// client disables both and the API keeps serving.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable: rate limiting and caching disabled")
	}

	// Repositories
	accounts := repository.NewAccountRepo(db)
	tokens := repository.NewTokenRepo(db)
	batteries := repository.NewBatteryRepo(db)
	appointments := repository.NewAppointmentRepo(db)

	// Handlers
	authH := handler.NewAuthHandler(cfg, accounts, tokens)
	profileH := handler.NewProfileHandler(accounts, tokens)
	batteryH := handler.NewBatteryHandler(batteries)
	companyApptH := handler.NewCompanyApptHandler(appointments, batteries)
	dashboardH := handler.NewDashboardHandler(batteries, appointments)
	customerApptH := handler.NewCustomerApptHandler(appointments, accounts, batteries)
	browseH := handler.NewBrowseHandler(batteries)

	e := echo.New() // Create Echo instance

	// Global token-bucket rate limiter (no-op when disabled).
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, profileH, cfg.JWTSecret)
	router.RegisterCompany(e, batteryH, companyApptH, dashboardH, cfg.JWTSecret)
	router.RegisterCustomer(e, customerApptH, cfg.JWTSecret)
	// Public browse responses are cached in Redis.
	router.RegisterPublic(e, browseH, middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	// Consume swap.completed events in the background; the consumer
	// reconnects on its own and never takes the API down.
	go func() {
		if err := queue.StartSwapConsumer(); err != nil {
			log.Printf("swap consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
