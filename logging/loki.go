package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
)

const (
	DefaultBatchSize = 100
	DefaultBatchWait = time.Second
	DefaultTimeout   = 5 * time.Second
	pushPath         = "/loki/api/v1/push"
)

type LokiConfig struct {
	URL string
	// BasicAuth is "user:password"
	BasicAuth string
	Labels    map[string]string
	BatchSize int
	BatchWait time.Duration
	Timeout   time.Duration
	Client    *http.Client
	// ErrorOut receives push failures, os.Stderr by default
	ErrorOut io.Writer
}

type entry struct {
	ts   time.Time
	line string
}

/* LokiWriter batches log lines and pushes them to Loki in the background.
 * Push failures are reported on ErrorOut and never block the caller.
 */
type LokiWriter struct {
	cfg      LokiConfig
	endpoint string
	user     string
	password string

	mu     sync.Mutex
	batch  []entry
	closed bool

	full chan struct{}
	stop chan struct{}
	done chan struct{}
}

func NewLokiWriter(cfg LokiConfig) (*LokiWriter, error) {
	if cfg.URL == "" {
		return nil, errors.New("loki url is empty")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BatchWait <= 0 {
		cfg.BatchWait = DefaultBatchWait
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{}
	}
	if cfg.ErrorOut == nil {
		cfg.ErrorOut = os.Stderr
	}

	w := &LokiWriter{
		cfg:      cfg,
		endpoint: strings.TrimRight(cfg.URL, "/") + pushPath,
		full:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	if cfg.BasicAuth != "" {
		user, password, ok := strings.Cut(cfg.BasicAuth, ":")
		if !ok {
			return nil, errors.New("loki basic auth must be user:password")
		}
		w.user, w.password = user, password
	}

	go w.run()
	return w, nil
}

// Write queues one log line. zerolog calls Write once per event.
func (w *LokiWriter) Write(p []byte) (int, error) {
	line := strings.TrimRight(string(p), "\n")

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return len(p), nil
	}
	w.batch = append(w.batch, entry{ts: time.Now(), line: line})
	if len(w.batch) >= w.cfg.BatchSize {
		select {
		case w.full <- struct{}{}:
		default:
		}
	}
	return len(p), nil
}

// Close stops the background loop after pushing whatever is buffered
func (w *LokiWriter) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.stop)
	<-w.done
	return nil
}

func (w *LokiWriter) run() {
	defer close(w.done)
	ticker := time.NewTicker(w.cfg.BatchWait)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.flush()
		case <-w.full:
			w.flush()
		case <-w.stop:
			w.flush()
			return
		}
	}
}

func (w *LokiWriter) flush() {
	w.mu.Lock()
	batch := w.batch
	w.batch = nil
	w.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	if err := w.push(batch); err != nil {
		fmt.Fprintf(w.cfg.ErrorOut, "loki: dropping %d log lines: %v\n", len(batch), err)
	}
}

type pushRequest struct {
	Streams []stream `json:"streams"`
}

type stream struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

func (w *LokiWriter) push(batch []entry) error {
	values := make([][2]string, len(batch))
	for i, e := range batch {
		values[i] = [2]string{strconv.FormatInt(e.ts.UnixNano(), 10), e.line}
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if err := json.NewEncoder(zw).Encode(pushRequest{
		Streams: []stream{{Stream: w.cfg.Labels, Values: values}},
	}); err != nil {
		return fmt.Errorf("encoding push request: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compressing push request: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, &buf)
	if err != nil {
		return fmt.Errorf("creating push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	if w.user != "" {
		req.SetBasicAuth(w.user, w.password)
	}

	resp, err := w.cfg.Client.Do(req)
	if err != nil {
		return fmt.Errorf("pushing to loki: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("loki responded with status %d", resp.StatusCode)
	}
	return nil
}
