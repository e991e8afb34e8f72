package metrics

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

const window = time.Minute

// Sizer reports how many items a store holds
type Sizer interface {
	Len() int
}

/* Recorder counts inbound traffic and demo runs.
 * It is the performance service handed to the demo and the
 * source of the OTel gauges.
 */
type Recorder struct {
	mu       sync.Mutex
	requests int64
	errors   int64
	runs     int64
	recent   []time.Time
	store    Sizer
	now      func() time.Time
}

func NewRecorder(store Sizer) *Recorder {
	return &Recorder{store: store, now: time.Now}
}

// RecordRequest counts one served request with its response status
func (r *Recorder) RecordRequest(status int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.requests++
	if status >= http.StatusBadRequest {
		r.errors++
	}
	r.recent = append(r.prune(now), now)
}

// RecordRun counts one orchestrator run
func (r *Recorder) RecordRun() {
	r.mu.Lock()
	r.runs++
	r.mu.Unlock()
}

// prune drops timestamps older than the window. Caller holds mu.
func (r *Recorder) prune(now time.Time) []time.Time {
	cutoff := now.Add(-window)
	i := 0
	for i < len(r.recent) && !r.recent[i].After(cutoff) {
		i++
	}
	if i > 0 {
		n := copy(r.recent, r.recent[i:])
		r.recent = r.recent[:n]
	}
	return r.recent
}

// Metrics returns a point-in-time view
func (r *Recorder) Metrics() Metrics {
	r.mu.Lock()
	now := r.now()
	perMinute := float64(len(r.prune(now)))
	m := Metrics{
		RequestCount:      r.requests,
		ErrorCount:        r.errors,
		RequestsPerMinute: perMinute,
		LoadLevel:         LoadLevel(perMinute),
		DemoRuns:          r.runs,
		Timestamp:         now,
	}
	r.mu.Unlock()

	if r.store != nil {
		m.WebhooksStored = int64(r.store.Len())
	}
	return m
}

func (r *Recorder) Collect(ctx context.Context) (Metrics, error) {
	if err := ctx.Err(); err != nil {
		return Metrics{}, err
	}
	return r.Metrics(), nil
}

// Middleware records every request passing through the router
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		r.RecordRequest(status)
	})
}
