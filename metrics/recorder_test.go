package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSizer int

func (f fixedSizer) Len() int { return int(f) }

func TestRecorder(t *testing.T) {
	t.Run("counts requests and errors", func(t *testing.T) {
		r := NewRecorder(fixedSizer(7))
		r.RecordRequest(http.StatusOK)
		r.RecordRequest(http.StatusInternalServerError)
		r.RecordRequest(http.StatusUnauthorized)
		r.RecordRun()

		m := r.Metrics()
		assert.Equal(t, int64(3), m.RequestCount)
		assert.Equal(t, int64(2), m.ErrorCount)
		assert.Equal(t, float64(3), m.RequestsPerMinute)
		assert.Equal(t, LoadLow, m.LoadLevel)
		assert.Equal(t, int64(7), m.WebhooksStored)
		assert.Equal(t, int64(1), m.DemoRuns)
	})

	t.Run("rate only covers the last minute", func(t *testing.T) {
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		r := NewRecorder(nil)
		r.now = func() time.Time { return now }

		r.RecordRequest(http.StatusOK)
		now = now.Add(30 * time.Second)
		r.RecordRequest(http.StatusOK)
		now = now.Add(45 * time.Second)

		m := r.Metrics()
		assert.Equal(t, int64(2), m.RequestCount)
		assert.Equal(t, float64(1), m.RequestsPerMinute)
	})

	t.Run("collect honours cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewRecorder(nil).Collect(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestLoadLevel(t *testing.T) {
	assert.Equal(t, LoadLow, LoadLevel(0))
	assert.Equal(t, LoadMedium, LoadLevel(60))
	assert.Equal(t, LoadHigh, LoadLevel(1000))
}

func TestMiddleware(t *testing.T) {
	r := NewRecorder(nil)
	h := r.Middleware(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == "/fail" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))

	m := r.Metrics()
	assert.Equal(t, int64(2), m.RequestCount)
	assert.Equal(t, int64(1), m.ErrorCount)
}

func TestOTelExporter(t *testing.T) {
	r := NewRecorder(fixedSizer(3))
	r.RecordRequest(http.StatusOK)

	oe, err := NewOTelExporter("timeherenow-test", r)
	require.NoError(t, err)
	defer oe.Shutdown(context.Background())

	rec := httptest.NewRecorder()
	oe.ServeHTTP().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "demo_http_requests")
	assert.Contains(t, body, "demo_webhooks_stored")
	assert.Contains(t, body, "demo_runs")
}
