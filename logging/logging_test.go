package logging_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/marcelsud/timeherenow-example/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("stdout only", func(t *testing.T) {
		var out bytes.Buffer
		logger, sink, err := logging.New(logging.Options{Level: "warn", Service: "svc", Out: &out})
		require.NoError(t, err)
		defer sink.Close()

		logger.Info().Msg("hidden")
		logger.Warn().Str("feature", "Logging").Msg("shown")

		var line map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &line))
		assert.Equal(t, "shown", line["message"])
		assert.Equal(t, "svc", line["service"])
		assert.Equal(t, "Logging", line["feature"])
	})

	t.Run("duplicates to loki when configured", func(t *testing.T) {
		fake := &fakeLoki{}
		srv := httptest.NewServer(fake)
		defer srv.Close()

		var out bytes.Buffer
		logger, sink, err := logging.New(logging.Options{Level: "info", Service: "svc", LokiURL: srv.URL, Out: &out})
		require.NoError(t, err)

		logger.Info().Msg("to both")
		require.NoError(t, sink.Close())

		assert.Contains(t, out.String(), "to both")
		require.Eventually(t, func() bool { return len(fake.lines()) == 1 }, time.Second, 10*time.Millisecond)
		assert.Equal(t, map[string]string{
			"app":       logging.AppLabel,
			"component": logging.ComponentLabel,
			"service":   "svc",
		}, fake.snapshot()[0].Streams[0].Stream)
	})

	t.Run("bad level", func(t *testing.T) {
		_, _, err := logging.New(logging.Options{Level: "shouting"})
		assert.Error(t, err)
	})
}
