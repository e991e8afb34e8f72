package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marcelsud/timeherenow-example/config"
	"github.com/marcelsud/timeherenow-example/demo"
	"github.com/marcelsud/timeherenow-example/internal/app"
	"github.com/marcelsud/timeherenow-example/internal/http/chi"
	"github.com/marcelsud/timeherenow-example/logging"
	"github.com/marcelsud/timeherenow-example/metrics"
	"github.com/marcelsud/timeherenow-example/server"
	"github.com/marcelsud/timeherenow-example/webhook"
	"github.com/marcelsud/timeherenow-example/webhook/signature"
	"github.com/rs/zerolog"
)

// TIMEOUT bounds the teardown of the scheduler and the metrics exporter
const TIMEOUT = 10 * time.Second

/* main is where every package gets wired together and the only place
 * that decides the exit code.
 * Imports go in one direction only: the binary imports the business
 * packages, which import the storage and transport layers.
 */

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}

	logger, sink, err := logging.New(logging.Options{
		Level:         cfg.LogLevel,
		Service:       cfg.ServiceName,
		LokiURL:       cfg.LokiURL,
		LokiBasicAuth: cfg.LokiBasicAuth,
	})
	if err != nil {
		return err
	}
	defer sink.Close()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	store := webhook.NewStore(webhook.DefaultCapacity)
	recorder := metrics.NewRecorder(store)
	exporter, err := metrics.NewOTelExporter(cfg.ServiceName, recorder)
	if err != nil {
		return err
	}

	client, err := app.NewSDK(cfg, logger, recorder)
	if err != nil {
		return err
	}
	defer client.Close()

	secret, err := app.SigningSecret(cfg)
	if err != nil {
		return err
	}
	service := webhook.NewService(store)
	if secret != nil {
		service = service.WithVerifier(signature.NewVerifier(*secret))
	}

	handler := chi.WebhookHandlers(ctx, service, recorder, exporter.ServeHTTP(), logger)
	srv := server.New(server.Config{
		CertFile: cfg.CertFile,
		KeyFile:  cfg.KeyFile,
	}, client.Client, handler, logger)
	if err := srv.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to start webhook server")
		return err
	}

	errShutdown := make(chan error, 1)
	go shutdown(srv, ctx, cfg.ShutdownTimeout, errShutdown)

	orchestrator := demo.New(client.Client, client.API,
		demo.WithLogger(logger),
		demo.WithRunRecorder(recorder),
		demo.WithSigningSecret(secret),
	)
	if _, err := orchestrator.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error().Err(err).Msg("demo failed")
		stop()
		if errSrv := <-errShutdown; errSrv != nil {
			logger.Error().Err(errSrv).Msg("shutting down webhook server")
		}
		return err
	}

	var scheduler *demo.Scheduler
	if cfg.DemoSchedule != "" {
		scheduler, err = demo.NewScheduler(cfg.DemoSchedule, orchestrator, logger.With().Str("component", "scheduler").Logger())
		if err != nil {
			stop()
			<-errShutdown
			return err
		}
		scheduler.Start(ctx)
		logger.Info().Str("schedule", cfg.DemoSchedule).Msg("demo scheduler started")
	}

	logger.Info().Int("port", srv.Context().Port).Msg("webhook server running, waiting for signal")

	select {
	case err = <-srv.Errors():
		logger.Error().Err(err).Msg("webhook server stopped")
		stop()
		<-errShutdown
	case err = <-errShutdown:
	}

	teardown(scheduler, exporter, logger)
	return err
}

func shutdown(srv *server.Server, ctxShutdown context.Context, timeout time.Duration, errShutdown chan error) {
	<-ctxShutdown.Done()

	ctxTimeout, stop := context.WithTimeout(context.Background(), timeout)
	defer stop()

	err := srv.Shutdown(ctxTimeout)
	switch {
	case err == nil:
		fmt.Printf("\nShutting down server...\n")
		errShutdown <- nil
	case errors.Is(err, context.DeadlineExceeded):
		errShutdown <- fmt.Errorf("forcing closing the server: %w", err)
	default:
		errShutdown <- err
	}
}

func teardown(scheduler *demo.Scheduler, exporter *metrics.OTelExporter, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), TIMEOUT)
	defer cancel()

	if scheduler != nil {
		if err := scheduler.Stop(ctx); err != nil {
			logger.Warn().Err(err).Msg("stopping scheduler")
		}
	}
	if err := exporter.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("stopping metrics exporter")
	}
}
