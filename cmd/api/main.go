package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ternakhub/livestock-api/internal/config"
	"github.com/ternakhub/livestock-api/internal/handler"
	"github.com/ternakhub/livestock-api/internal/logging"
	"github.com/ternakhub/livestock-api/internal/middleware"
	"github.com/ternakhub/livestock-api/internal/repository"
	"github.com/ternakhub/livestock-api/internal/service/ledger"
	"github.com/ternakhub/livestock-api/internal/service/report"
)

func main() {
	// Local development convenience; the file is absent in production.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("livestock-api", cfg.LogLevel, cfg.AppEnv)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	pool, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	cancel()
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	transactions := repository.NewTransactionRepository(pool)
	animals := repository.NewAnimalRepository(pool)
	users := repository.NewUserRepository(pool)

	ledgerSvc := ledger.NewService(transactions, animals, repository.NewDB(pool, cfg.DBLockTimeoutMS))
	reportSvc := report.NewService(transactions, animals)

	healthHandler := handler.NewHealthHandler(pool)
	authHandler := handler.NewAuthHandler(users, cfg.JWTSecret, time.Duration(cfg.JWTExpiryH)*time.Hour)
	transactionHandler := handler.NewTransactionHandler(ledgerSvc)
	animalHandler := handler.NewAnimalHandler(animals)
	reportHandler := handler.NewReportHandler(reportSvc)

	authed := middleware.Auth(cfg.JWTSecret)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)

	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)

	mux.Handle("POST /api/v1/transactions", authed(http.HandlerFunc(transactionHandler.Create)))
	mux.Handle("PUT /api/v1/transactions/{id}", authed(http.HandlerFunc(transactionHandler.Update)))
	mux.Handle("DELETE /api/v1/transactions/{id}", authed(http.HandlerFunc(transactionHandler.Delete)))
	mux.Handle("GET /api/v1/transactions/{id}", authed(http.HandlerFunc(transactionHandler.Get)))
	mux.Handle("GET /api/v1/transactions", authed(http.HandlerFunc(transactionHandler.List)))
	mux.Handle("GET /api/v1/animals", authed(http.HandlerFunc(animalHandler.List)))
	mux.Handle("GET /api/v1/reports/summary", authed(http.HandlerFunc(reportHandler.Summary)))

	root := middleware.Tracing(middleware.Logging(middleware.Recovery(mux)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
