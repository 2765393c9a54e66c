package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/username/institutionledger/src/config"
	"github.com/username/institutionledger/src/database"
	"github.com/username/institutionledger/src/handlers"
	"github.com/username/institutionledger/src/logger"
	"github.com/username/institutionledger/src/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		stdlog.Fatalf("Failed to load configuration: %v", err)
	}
	logger.InitLogger(cfg.LogLevel)

	logger.L.Info("Institution ledger server starting...")

	logger.L.Info("Initializing database...", "path", cfg.DatabasePath)
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		logger.L.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := database.RunMigrations(db); err != nil {
		logger.L.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	store := database.NewStore(db)
	reportCache := services.NewReportCache(cfg.ReportCacheTTL, cfg.ReportCacheCleanup)

	accountService := services.NewAccountService(store, nil)
	transactionService := services.NewTransactionService(store, nil)
	ledgerService := services.NewLedgerService(store, accountService, transactionService, reportCache)
	transferService := services.NewTransferService(store, accountService, transactionService, reportCache)
	institutionTransferService := services.NewInstitutionTransferService(store, accountService, transactionService, transferService, reportCache, nil)
	reportService := services.NewReportService(store, accountService, transactionService, reportCache)

	ledgerHandler := handlers.NewLedgerHandler(ledgerService, transferService, reportService)
	reportHandler := handlers.NewReportHandler(reportService, institutionTransferService)

	r := handlers.NewRouter(handlers.RouterOptions{
		AllowedOrigins:    cfg.AllowedOrigins,
		RateLimitInterval: cfg.RateLimitInterval,
		RateLimitBurst:    cfg.RateLimitBurst,
	}, ledgerHandler, reportHandler)

	serverAddr := ":" + cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.L.Info("Server starting", "address", serverAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.L.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L.Error("Graceful shutdown failed", "error", err)
	}
	logger.L.Info("Server stopped")
}
