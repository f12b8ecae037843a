package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"timesheet/internal/app"
	"timesheet/internal/auth"
	"timesheet/internal/config"
	"timesheet/internal/handler"
	internalRedis "timesheet/internal/redis"
	"timesheet/internal/repository/postgres"
	"timesheet/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Wire dependencies.
	server, err := wireServer(db, redisClient, nrApp, cfg)
	if err != nil {
		log.Fatalf("failed to wire server: %v", err)
	}

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) (*http.Server, error) {
	// Initialize Redis stores.
	resetTokens := internalRedis.NewTokenStore(redisClient)

	// Initialize repositories.
	userRepo := postgres.NewUserRepository(db)
	timesheetRepo := postgres.NewTimesheetRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)

	// Initialize auth primitives.
	tokens := auth.NewTokenManager(
		auth.TokenConfig{Secret: cfg.JWT.AccessSecret, TTL: cfg.JWT.AccessTTL},
		auth.TokenConfig{Secret: cfg.JWT.RefreshSecret, TTL: cfg.JWT.RefreshTTL},
		auth.TokenConfig{Secret: cfg.JWT.ResetSecret, TTL: cfg.JWT.ResetTTL},
	)
	hasher := auth.NewPasswordHasher(cfg.App.BcryptCost)

	mailer := service.NewSMTPMailer(service.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		Enabled:  cfg.SMTP.Enabled,
	})

	assets, err := service.NewDiskAssetStore(cfg.Uploads.Dir, cfg.Uploads.BaseURL)
	if err != nil {
		return nil, err
	}

	// Initialize services.
	authService := service.NewAuthService(userRepo, sessionRepo, tokens, hasher, resetTokens, mailer, cfg.App.ResetPasswordURL)
	userService := service.NewUserService(userRepo, hasher)
	timesheetService := service.NewTimesheetService(timesheetRepo, userRepo, assets)

	// Initialize handlers.
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService, authService)
	timesheetHandler := handler.NewTimesheetHandler(timesheetService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		AuthHandler:      authHandler,
		UserHandler:      userHandler,
		TimesheetHandler: timesheetHandler,
		AuthService:      authService,
		RedisClient:      redisClient,
		NewRelicApp:      nrApp,
		UploadsDir:       cfg.Uploads.Dir,
		UploadsBaseURL:   cfg.Uploads.BaseURL,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, nil
}
