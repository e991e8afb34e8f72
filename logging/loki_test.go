package logging_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/marcelsud/timeherenow-example/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pushed struct {
	Streams []struct {
		Stream map[string]string `json:"stream"`
		Values [][2]string       `json:"values"`
	} `json:"streams"`
}

type fakeLoki struct {
	mu       sync.Mutex
	requests []pushed
	user     string
	password string
	encoding string
	path     string
}

func (f *fakeLoki) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	zr, err := gzip.NewReader(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	var p pushed
	if err := json.NewDecoder(zr).Decode(&p); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, p)
	f.user, f.password, _ = r.BasicAuth()
	f.encoding = r.Header.Get("Content-Encoding")
	f.path = r.URL.Path
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeLoki) snapshot() []pushed {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]pushed(nil), f.requests...)
}

func (f *fakeLoki) lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, p := range f.requests {
		for _, s := range p.Streams {
			for _, v := range s.Values {
				out = append(out, v[1])
			}
		}
	}
	return out
}

func TestLokiWriter(t *testing.T) {
	labels := map[string]string{"app": "timeherenow", "component": "api", "service": "svc"}

	t.Run("close flushes buffered lines", func(t *testing.T) {
		fake := &fakeLoki{}
		srv := httptest.NewServer(fake)
		defer srv.Close()

		w, err := logging.NewLokiWriter(logging.LokiConfig{
			URL:       srv.URL,
			BasicAuth: "user:secret",
			Labels:    labels,
			BatchWait: time.Hour,
		})
		require.NoError(t, err)

		_, _ = w.Write([]byte(`{"level":"info","message":"one"}` + "\n"))
		_, _ = w.Write([]byte(`{"level":"info","message":"two"}` + "\n"))
		require.NoError(t, w.Close())

		assert.Equal(t, []string{`{"level":"info","message":"one"}`, `{"level":"info","message":"two"}`}, fake.lines())
		requests := fake.snapshot()
		require.Len(t, requests, 1)
		assert.Equal(t, labels, requests[0].Streams[0].Stream)
		assert.Equal(t, "user", fake.user)
		assert.Equal(t, "secret", fake.password)
		assert.Equal(t, "gzip", fake.encoding)
		assert.Equal(t, "/loki/api/v1/push", fake.path)
	})

	t.Run("full batch is pushed without waiting", func(t *testing.T) {
		fake := &fakeLoki{}
		srv := httptest.NewServer(fake)
		defer srv.Close()

		w, err := logging.NewLokiWriter(logging.LokiConfig{URL: srv.URL, Labels: labels, BatchSize: 3, BatchWait: time.Hour})
		require.NoError(t, err)
		defer w.Close()

		for i := 0; i < 3; i++ {
			_, _ = w.Write([]byte(fmt.Sprintf("line %d\n", i)))
		}

		assert.Eventually(t, func() bool { return len(fake.lines()) == 3 }, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("push failures go to the error writer", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		var errOut bytes.Buffer
		w, err := logging.NewLokiWriter(logging.LokiConfig{URL: srv.URL, Labels: labels, BatchWait: time.Hour, ErrorOut: &errOut})
		require.NoError(t, err)

		n, err := w.Write([]byte("hello\n"))
		assert.NoError(t, err)
		assert.Equal(t, 6, n)
		require.NoError(t, w.Close())

		assert.Contains(t, errOut.String(), "status 500")
	})

	t.Run("writes after close are dropped", func(t *testing.T) {
		fake := &fakeLoki{}
		srv := httptest.NewServer(fake)
		defer srv.Close()

		w, err := logging.NewLokiWriter(logging.LokiConfig{URL: srv.URL, Labels: labels})
		require.NoError(t, err)
		require.NoError(t, w.Close())
		require.NoError(t, w.Close())

		_, err = w.Write([]byte("late\n"))
		assert.NoError(t, err)
		assert.Empty(t, fake.lines())
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := logging.NewLokiWriter(logging.LokiConfig{})
		assert.Error(t, err)

		_, err = logging.NewLokiWriter(logging.LokiConfig{URL: "http://loki", BasicAuth: "nocolon"})
		assert.Error(t, err)
	})
}
