package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/microcred/lendbook/internal/config"
	"github.com/microcred/lendbook/internal/handler"
	"github.com/microcred/lendbook/internal/logging"
	"github.com/microcred/lendbook/internal/middleware"
	"github.com/microcred/lendbook/internal/repository"
	"github.com/microcred/lendbook/internal/service/credit"
	"github.com/microcred/lendbook/internal/service/ledger"
	"github.com/microcred/lendbook/internal/service/portfolio"
	"github.com/microcred/lendbook/internal/service/sweeper"
	"github.com/microcred/lendbook/internal/term"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Init("lendbook-api", cfg.LogLevel, cfg.AppEnv)

	db, err := connectDB(cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		// The summary cache degrades to direct reads, so Redis being away
		// is not fatal.
		slog.Warn("redis unreachable, portfolio summary cache disabled at startup", "error", err)
	}

	loanRepo := repository.NewLoanRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)
	summaryCache := repository.NewRedisSummaryCache(redisClient, time.Duration(cfg.SummaryCacheTTLSecs)*time.Second)

	assessor := term.NewAssessor(decimal.NewFromFloat(cfg.LateFeeWeekly))
	adjuster := credit.NewAdjuster(cfg.CreditScorePenalty)

	ledgerSvc := ledger.NewService(loanRepo, paymentRepo, customerRepo, scheduleRepo, assessor, adjuster, summaryCache, db)
	portfolioSvc := portfolio.NewService(loanRepo, summaryCache)

	sweep := sweeper.New(loanRepo, summaryCache, db, logger, cfg.SweepSchedule)
	if err := sweep.Start(); err != nil {
		slog.Error("failed to start past-due sweeper", "error", err)
		os.Exit(1)
	}
	defer sweep.Stop()

	loanHandler := handler.NewLoanHandler(ledgerSvc)
	paymentHandler := handler.NewPaymentHandler(ledgerSvc)
	portfolioHandler := handler.NewPortfolioHandler(portfolioSvc)
	healthHandler := handler.NewHealthHandler(db)

	idempotent := middleware.Idempotency(idempotencyRepo)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health/live", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)

	mux.HandleFunc("POST /api/v1/loans", loanHandler.Originate)
	mux.HandleFunc("GET /api/v1/loans/{id}", loanHandler.Get)
	mux.HandleFunc("GET /api/v1/loans/{id}/payments", loanHandler.ListPayments)
	mux.Handle("POST /api/v1/loans/{id}/payments", idempotent(http.HandlerFunc(paymentHandler.Apply)))
	mux.HandleFunc("GET /api/v1/payments/{id}", paymentHandler.Get)
	mux.HandleFunc("POST /api/v1/payments/{id}/reverse", paymentHandler.Reverse)
	mux.HandleFunc("GET /api/v1/portfolio/summary", portfolioHandler.Summary)

	var root http.Handler = mux
	root = middleware.Logging(root)
	root = middleware.Tracing(root)
	root = middleware.Recovery(root)

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
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func connectDB(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connectDB: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetimeS) * time.Second)
	db.SetConnMaxIdleTime(time.Duration(cfg.DBConnMaxIdleTimeS) * time.Second)

	for i := range 30 {
		if err = db.Ping(); err == nil {
			return db, nil
		}
		slog.Info("waiting for database", "attempt", i+1)
		time.Sleep(time.Second)
	}

	db.Close()
	return nil, fmt.Errorf("connectDB: gave up after 30 attempts: %w", err)
}
