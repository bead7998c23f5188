/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the leave management server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration from the environment (LEAVE_ prefix)
  2. Initialize the logger and SQLite store
  3. Validate the leave-type classification table
  4. Wire ledger, lifecycle controller, notifier and HTTP handler
  5. Start the server with graceful shutdown

ENVIRONMENT:
  LEAVE_PORT             HTTP port (default 8080)
  LEAVE_DATABASE_PATH    SQLite path (default leave.db, ":memory:" works)
  LEAVE_ADMIN_PASSWORD   required; guards administrative routes
  LEAVE_ADMIN_EMAIL      recipient of submission/transition notices
  LEAVE_SMTP_HOST        leave empty to disable email

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

SEE ALSO:
  - api/server.go: router configuration
  - store/sqlite/sqlite.go: database implementation
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/qtask/leave-engine/api"
	"github.com/qtask/leave-engine/config"
	"github.com/qtask/leave-engine/leave"
	"github.com/qtask/leave-engine/notify"
	"github.com/qtask/leave-engine/store/sqlite"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	store, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer store.Close()

	ledgerCfg := leave.DefaultConfig()
	ledgerCfg.PreventNegativeBalances = cfg.PreventNegativeBalances
	if cfg.DefaultPrivilegeDays > 0 {
		ledgerCfg.DefaultPrivilegeDays = decimal.NewFromInt(int64(cfg.DefaultPrivilegeDays))
	}
	if cfg.DefaultSickDays > 0 {
		ledgerCfg.DefaultSickDays = decimal.NewFromInt(int64(cfg.DefaultSickDays))
	}

	// Every token the UI can submit must be in the classification table.
	if err := ledgerCfg.ValidateTokens(acceptedLeaveTypes()); err != nil {
		logger.Fatal("leave-type table incomplete", zap.Error(err))
	}

	ledger := leave.NewLedger(store, ledgerCfg, logger)
	apps := leave.NewApplications(store, ledger, ledgerCfg, logger)

	var mailer notify.Mailer
	if cfg.SMTPHost != "" {
		mailer = &notify.SMTPMailer{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.SMTPFrom,
		}
	} else {
		logger.Info("SMTP not configured, email notifications disabled")
	}
	dispatcher := notify.NewDispatcher(mailer, cfg.AdminEmail, logger)

	handler := api.NewHandler(store, ledger, apps, dispatcher, cfg.AdminPassword, logger)
	router := api.NewRouter(handler, cfg.RateLimit)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

// acceptedLeaveTypes lists every token the UI offers.
func acceptedLeaveTypes() []string {
	return []string{
		"personal", "vacation-annual", "cash-out", "family-emergency",
		"bereavement", "maternity-paternity", "study-exam", "childcare",
		"jury-duty", "other", "sick", "medical-appointment",
		"leave-without-pay", "work-from-home",
	}
}
