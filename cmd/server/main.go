package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/Aadya-Jha/AgriCare-sub001/internal/analysis"
	"github.com/Aadya-Jha/AgriCare-sub001/internal/delivery/http"
	"github.com/Aadya-Jha/AgriCare-sub001/internal/registry"
	"github.com/Aadya-Jha/AgriCare-sub001/internal/repository/postgres"
	"github.com/Aadya-Jha/AgriCare-sub001/internal/service"
	"github.com/Aadya-Jha/AgriCare-sub001/internal/spectral"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Configuration
	cfg := loadConfig()

	if cfg.RegistryFile != "" {
		if err := registry.LoadFile(cfg.RegistryFile); err != nil {
			log.Fatalf("Failed to load location registry: %v", err)
		}
		log.Printf("Loaded %d locations from %s", len(registry.Names()), cfg.RegistryFile)
	}

	// Database connection
	pool := connectDatabase(cfg.DatabaseURL)
	if pool != nil {
		defer pool.Close()
	}

	// Dependency Injection: Repositories
	var (
		jobStore  service.JobStore
		predLogs  service.PredictionLogRepository
		mockStore = postgres.NewMockRepository()
	)
	if pool != nil {
		repo := postgres.NewPostgresRepository(pool)
		jobStore, predLogs = repo, repo
	} else {
		jobStore, predLogs = mockStore, mockStore
	}

	// Dependency Injection: Services
	wavelengths := spectral.DefaultWavelengths(cfg.NumBands)
	fallback := service.NewSimulationBackend(service.SimulationConfig{
		Wavelengths: wavelengths,
		NoiseSigma:  cfg.NoiseSigma,
		Jitter:      analysis.DefaultJitter,
		MaxSide:     cfg.MaxImageSide,
	})
	engine := service.NewEngineBackend(service.EngineConfig{
		Path:    cfg.EnginePath,
		Timeout: cfg.EngineTimeout,
		Rate:    cfg.EngineRate,
		Bands:   cfg.NumBands,
	})
	gateway := service.NewGateway(engine, fallback, predLogs, service.GatewayConfig{
		Wavelengths: wavelengths,
		CacheTTL:    cfg.PredictionCacheTTL,
	})
	if gateway.EngineAvailable() {
		log.Printf("Using model engine at %s", cfg.EnginePath)
	} else {
		log.Println("Running in simulation mode")
	}

	jobs := service.NewJobManager(jobStore, gateway, service.JobConfig{
		Workers:     cfg.JobWorkers,
		QueueSize:   cfg.JobQueueSize,
		FirstDelay:  cfg.JobFirstDelay,
		SecondDelay: cfg.JobSecondDelay,
	})
	dashboardSvc := service.NewDashboardService(gateway)

	// Fiber App
	app := fiber.New(fiber.Config{
		AppName:      "AgriCare API v1.0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		BodyLimit:    cfg.MaxUploadMB * 1024 * 1024,
		ErrorHandler: http.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Routes
	http.SetupRoutes(app, gateway, jobs, dashboardSvc, jobStore)

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s (%s)", cfg.Port, cfg.Env)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	jobs.Close()
	gateway.WaitBackground()
	log.Println("Server exited gracefully")
}

// connectDatabase returns a pool, or nil when the database is not configured
// or unreachable
func connectDatabase(url string) *pgxpool.Pool {
	if url == "" {
		log.Println("DATABASE_URL not set, using in-memory job store")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	if err == nil {
		err = pool.Ping(ctx)
		if err != nil {
			pool.Close()
		}
	}
	if err != nil {
		log.Printf("Warning: Could not connect to database: %v", err)
		log.Println("Running with in-memory job store")
		return nil
	}

	if err := postgres.NewPostgresRepository(pool).EnsureSchema(ctx); err != nil {
		log.Printf("Warning: %v", err)
		log.Println("Running with in-memory job store")
		pool.Close()
		return nil
	}

	log.Println("Connected to PostgreSQL")
	return pool
}

type Config struct {
	DatabaseURL        string
	Port               string
	Env                string
	EnginePath         string
	EngineTimeout      time.Duration
	EngineRate         float64
	NumBands           int
	NoiseSigma         float64
	MaxImageSide       int
	JobWorkers         int
	JobQueueSize       int
	JobFirstDelay      time.Duration
	JobSecondDelay     time.Duration
	PredictionCacheTTL time.Duration
	RegistryFile       string
	MaxUploadMB        int
}

func loadConfig() *Config {
	return &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("GO_ENV", "development"),
		EnginePath:         getEnv("ENGINE_PATH", "hyperspectral-engine"),
		EngineTimeout:      getEnvDuration("ENGINE_TIMEOUT", service.DefaultEngineTimeout),
		EngineRate:         getEnvFloat("ENGINE_RATE", 0),
		NumBands:           getEnvInt("NUM_BANDS", spectral.DefaultBands),
		NoiseSigma:         getEnvFloat("NOISE_SIGMA", spectral.DefaultNoiseSigma),
		MaxImageSide:       getEnvInt("MAX_IMAGE_SIDE", service.DefaultMaxSide),
		JobWorkers:         getEnvInt("JOB_WORKERS", service.DefaultJobWorkers),
		JobQueueSize:       getEnvInt("JOB_QUEUE_SIZE", service.DefaultJobQueueSize),
		JobFirstDelay:      getEnvDuration("JOB_FIRST_DELAY", service.DefaultJobFirstDelay),
		JobSecondDelay:     getEnvDuration("JOB_SECOND_DELAY", service.DefaultJobSecondDelay),
		PredictionCacheTTL: getEnvDuration("PREDICTION_CACHE_TTL", 0),
		RegistryFile:       getEnv("REGISTRY_FILE", ""),
		MaxUploadMB:        getEnvInt("MAX_UPLOAD_MB", 16),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}

func getEnvFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil || v < 0 {
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || v < 0 {
		return defaultValue
	}
	return v
}
