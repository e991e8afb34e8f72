package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/marcelsud/timeherenow-example/internal/requestctx"
	"github.com/marcelsud/timeherenow-example/webhook"
	"github.com/rs/zerolog"
)

/* HTTP layer DTOs for the webhook API
 * Separate from domain entities to avoid leaking internal structure
 */

// webhookResponse is returned when a webhook was recorded
type webhookResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	RequestID string `json:"requestId"`
}

// errorResponse always carries the correlation id
type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// postWebhook handles POST /webhook
func postWebhook(webhookService webhook.UseCase, logger zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tagRequest(r)
		requestID := requestctx.ID(r.Context())
		defer r.Body.Close()

		body, err := io.ReadAll(r.Body)
		if err != nil {
			logger.Error().Err(err).Str("component", "Webhook").Str("requestId", requestID).Msg("Webhook processing error")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to read request body", RequestID: requestID})
			return
		}

		record, err := webhookService.Receive(r.Context(), requestID, body, r.Header)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, webhook.ErrUnauthorized) {
				status = http.StatusUnauthorized
			}
			logger.Error().Err(err).Str("component", "Webhook").Str("requestId", requestID).Msg("Webhook processing error")
			writeJSON(w, status, errorResponse{Error: err.Error(), RequestID: requestID})
			return
		}

		logger.Info().
			Str("component", "Webhook").
			Str("requestId", requestID).
			Interface("event", record.Event).
			Bool("hasData", len(record.Data) > 0).
			Msg("Webhook received")

		writeJSON(w, http.StatusOK, webhookResponse{
			Success:   true,
			Message:   "Webhook received",
			RequestID: requestID,
		})
	})
}

// getWebhooks handles GET /webhooks
func getWebhooks(webhookService webhook.UseCase, logger zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tagRequest(r)
		page, err := webhookService.List(r.Context())
		if err != nil {
			requestID := requestctx.ID(r.Context())
			logger.Error().Err(err).Str("requestId", requestID).Msg("listing webhooks")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error(), RequestID: requestID})
			return
		}
		if page.Webhooks == nil {
			page.Webhooks = []webhook.Record{}
		}
		writeJSON(w, http.StatusOK, page)
	})
}
