package chi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog"
	"github.com/marcelsud/timeherenow-example/metrics"
	"github.com/marcelsud/timeherenow-example/webhook"
	"github.com/rs/zerolog"
)

// WebhookHandlers sets up the demo server routes
func WebhookHandlers(ctx context.Context, webhookService webhook.UseCase, recorder *metrics.Recorder, metricsHandler http.Handler, logger zerolog.Logger) *chi.Mux {
	// access logs go through the application logger so they reach the same sinks
	httplog.Configure(httplog.Options{
		JSON:     true,
		LogLevel: accessLogLevel(logger),
	})
	accessLogger := logger.With().Str("component", "http").Logger()

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(httplog.RequestLogger(accessLogger))
	r.Use(recoverer(logger))
	if recorder != nil {
		r.Use(recorder.Middleware)
	}

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Method(http.MethodPost, "/webhook", postWebhook(webhookService, logger))
	r.Method(http.MethodGet, "/webhooks", getWebhooks(webhookService, logger))

	return r
}

func accessLogLevel(logger zerolog.Logger) string {
	level := logger.GetLevel()
	if level < zerolog.TraceLevel || level > zerolog.PanicLevel {
		return zerolog.InfoLevel.String()
	}
	return level.String()
}
