package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"budge/internal/amqp"
	"budge/internal/auth"
	"budge/internal/cli"
	apphttp "budge/internal/http"
	"budge/internal/log"
	"budge/internal/services"

	"golang.org/x/sync/errgroup"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// events stays an untyped nil when AMQP is off so services skip publishing
	var events services.EventPublisher
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		events = client
		logger.Info("Budget events enabled", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("Budget events disabled - no AMQP_URL provided")
	}

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	budgets := services.NewBudgetService(repo, events)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Auth:               services.NewAuthService(repo, issuer, cfg.BcryptCost),
		Budgets:            budgets,
		Transactions:       services.NewTransactionService(repo, budgets, events),
		Tokens:             issuer,
		DB:                 repo,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CORSOrigins:        cfg.CORSAllowedOrigins,
	})

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	var g errgroup.Group
	g.Go(func() error {
		logger.Info("Starting budge server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
