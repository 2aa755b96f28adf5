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
	"github.com/robfig/cron/v3"

	"github.com/kopesha/loan-core/internal/config"
	"github.com/kopesha/loan-core/internal/handler"
	"github.com/kopesha/loan-core/internal/logging"
	"github.com/kopesha/loan-core/internal/middleware"
	"github.com/kopesha/loan-core/internal/money"
	"github.com/kopesha/loan-core/internal/repository"
	"github.com/kopesha/loan-core/internal/service/ledger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("loan-core-api", cfg.LogLevel, cfg.AppEnv)

	db, err := connectDB(cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	loanRepo := repository.NewLoanRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	journalRepo := repository.NewJournalRepository(db)
	repaymentRepo := repository.NewRepaymentRepository(db)
	periodRepo := repository.NewPeriodRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	svc := ledger.NewService(loanRepo, accountRepo, journalRepo, repaymentRepo, periodRepo, auditRepo, db, cfg)

	baseCurrency := money.Currency(cfg.BaseCurrency)
	loanHandler := handler.NewLoanHandler(svc, baseCurrency)
	repaymentHandler := handler.NewRepaymentHandler(svc, baseCurrency)
	postingHandler := handler.NewPostingHandler(svc, baseCurrency)
	periodHandler := handler.NewPeriodHandler(svc)
	accountHandler := handler.NewAccountHandler(svc)
	auditHandler := handler.NewAuditHandler(svc)
	healthHandler := handler.NewHealthHandler(db)

	api := http.NewServeMux()

	api.HandleFunc("POST /loans/preview", loanHandler.Preview)
	api.HandleFunc("POST /loans", loanHandler.Create)
	api.HandleFunc("GET /loans", loanHandler.List)
	api.HandleFunc("GET /loans/{id}", loanHandler.Get)
	api.HandleFunc("GET /loans/{id}/schedule", loanHandler.Schedule)
	api.HandleFunc("POST /loans/{id}/approve", loanHandler.Approve)
	api.HandleFunc("POST /loans/{id}/status", loanHandler.SetStatus)

	api.HandleFunc("POST /loans/{id}/repayments", repaymentHandler.Record)
	api.HandleFunc("GET /loans/{id}/repayments", repaymentHandler.ListByLoan)
	api.HandleFunc("GET /repayments/{id}", repaymentHandler.Get)
	api.HandleFunc("POST /repayments/{id}/reverse", repaymentHandler.Reverse)

	api.HandleFunc("POST /expenses", postingHandler.PostExpense)
	api.HandleFunc("POST /equity-injections", postingHandler.PostEquityInjection)

	api.HandleFunc("POST /periods/{month}/close", periodHandler.Close)
	api.HandleFunc("GET /periods/{month}", periodHandler.Get)
	api.HandleFunc("GET /periods", periodHandler.List)

	api.HandleFunc("POST /accounts", accountHandler.Create)
	api.HandleFunc("GET /accounts", accountHandler.List)
	api.HandleFunc("GET /accounts/{id}", accountHandler.Get)
	api.HandleFunc("DELETE /accounts/{id}", accountHandler.Delete)
	api.HandleFunc("GET /accounts/{id}/lines", accountHandler.Lines)
	api.HandleFunc("POST /reconciliation", accountHandler.Reconcile)
	api.HandleFunc("GET /audit", auditHandler.Trail)

	// Auth runs before Logging so request logs carry the actor.
	protected := middleware.Tracing(
		middleware.Auth(cfg.JWTSecret)(
			middleware.Logging(
				middleware.Recovery(api),
			),
		),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)
	mux.Handle("/", protected)

	scheduler := startReconciler(cfg, svc)
	defer scheduler.Stop()

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
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

// startReconciler schedules the nightly sweep that checks cached account
// balances against the journal and flags unbalanced entries.
func startReconciler(cfg *config.Config, svc *ledger.Service) *cron.Cron {
	c := cron.New()
	_, err := c.AddFunc(cfg.ReconcileCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		report, err := svc.Reconcile(ctx)
		if err != nil {
			slog.Error("scheduled reconciliation failed", "error", err)
			return
		}
		slog.Info("scheduled reconciliation completed",
			"accounts_checked", report.AccountsChecked,
			"drifts", len(report.Drifts),
			"unbalanced_entries", len(report.UnbalancedEntries),
		)
	})
	if err != nil {
		slog.Error("invalid reconcile cron expression", "cron", cfg.ReconcileCron, "error", err)
		os.Exit(1)
	}
	c.Start()
	return c
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
