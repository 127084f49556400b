package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"picking-verification-backend/internal/config"
	handler "picking-verification-backend/internal/handlers"
	"picking-verification-backend/internal/lock"
	"picking-verification-backend/internal/repository"
	"picking-verification-backend/internal/routes"
	"picking-verification-backend/internal/services/archive"
	"picking-verification-backend/internal/services/auth"
	service "picking-verification-backend/internal/services/reconciliation"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on system env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := config.InitDB(cfg.DB)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	if err := config.Migrate(db); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	store, err := openStore(ctx, cfg.Store, db)
	if err != nil {
		logger.Fatal("store", zap.String("backend", cfg.Store.Backend), zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("database handle", zap.Error(err))
	}
	locker := lock.NewPostgres(sqlDB, lock.StoreLockKey)

	reconService := service.NewReconciliationService(
		store,
		repository.NewBatchRepository(db),
		locker,
		cfg.Batch.TTL,
		logger,
	)
	archiveService := archive.NewArchiveService(store, locker, logger)
	authService := auth.NewAuthService(
		repository.NewSessionRepository(db),
		cfg.Auth.AdminUsername,
		cfg.Auth.AdminPasswordHash,
		cfg.Auth.SessionTTL,
		logger,
	)

	gin.SetMode(cfg.Server.GinMode)
	r := gin.New()
	r.Use(gin.Recovery(), handler.RequestLogger(logger))
	// CORS config
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, routes.Deps{
		Reconciliation: reconService,
		Archive:        archiveService,
		Auth:           authService,
		MaxUploadSize:  cfg.Batch.MaxUploadSize,
		CookieSecure:   cfg.Auth.CookieSecure,
		Logger:         logger,
	})

	go sweep(ctx, reconService, authService, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	}()

	logger.Info("server listening",
		zap.String("addr", srv.Addr),
		zap.String("store", cfg.Store.Backend))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg config.StoreConfig, db *gorm.DB) (repository.Store, error) {
	switch cfg.Backend {
	case config.StoreMemory:
		return repository.NewMemoryStore(), nil
	case config.StorePostgres:
		return repository.NewPostgresStore(db), nil
	default:
		return repository.NewSheetsStore(ctx, []byte(cfg.CredentialsJSON), cfg.SpreadsheetID, cfg.Worksheet)
	}
}

// sweep expires abandoned batches and purges dead sessions.
func sweep(ctx context.Context, recon *service.ReconciliationService, a *auth.AuthService, logger *zap.Logger) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := recon.ExpirePending(ctx); err != nil {
				logger.Error("expire pending batches", zap.Error(err))
			}
			if _, err := a.PurgeExpired(ctx); err != nil {
				logger.Error("purge sessions", zap.Error(err))
			}
		}
	}
}
