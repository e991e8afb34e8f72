package chi

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/httplog"
	"github.com/marcelsud/timeherenow-example/internal/requestctx"
	"github.com/rs/zerolog"
)

// requestID resolves the correlation id from x-request-id or generates
// one, stores it in the request context and echoes it back
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := requestctx.Resolve(r.Header.Get(requestctx.Header))
		w.Header().Set(requestctx.Header, id)
		next.ServeHTTP(w, r.WithContext(requestctx.With(r.Context(), id)))
	})
}

/* recoverer turns a handler panic into the regular error body so the
 * caller still gets its correlation id. http.ErrAbortHandler is
 * re-raised for net/http to handle.
 */
func recoverer(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				id := requestctx.ID(r.Context())
				logger.Error().
					Str("component", "Webhook").
					Str("requestId", id).
					Str("panic", fmt.Sprint(rec)).
					Bytes("stack", debug.Stack()).
					Msg("Webhook processing error")
				writeJSON(w, http.StatusInternalServerError, errorResponse{
					Error:     "internal server error",
					RequestID: id,
				})
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// tagRequest adds the correlation id to the access log line
func tagRequest(r *http.Request) {
	httplog.LogEntrySetField(r.Context(), "requestId", requestctx.ID(r.Context()))
}
