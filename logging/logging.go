package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Labels attached to every stream pushed to Loki
const (
	AppLabel       = "timeherenow"
	ComponentLabel = "api"
)

type Options struct {
	Level         string
	Service       string
	LokiURL       string
	LokiBasicAuth string
	// Out defaults to os.Stdout
	Out io.Writer
}

// Sink is the writer behind an application logger. Close flushes any
// buffered remote output.
type Sink struct {
	io.Writer
	loki *LokiWriter
}

func (s *Sink) Close() error {
	if s.loki == nil {
		return nil
	}
	return s.loki.Close()
}

// New builds the application logger. When a Loki URL is configured the
// output is duplicated to Loki.
func New(opts Options) (zerolog.Logger, *Sink, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("parsing log level: %w", err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	sink := &Sink{Writer: out}

	if opts.LokiURL != "" {
		loki, err := NewLokiWriter(LokiConfig{
			URL:       opts.LokiURL,
			BasicAuth: opts.LokiBasicAuth,
			Labels: map[string]string{
				"app":       AppLabel,
				"component": ComponentLabel,
				"service":   opts.Service,
			},
		})
		if err != nil {
			return zerolog.Nop(), nil, err
		}
		sink.loki = loki
		sink.Writer = zerolog.MultiLevelWriter(out, loki)
	}

	logger := zerolog.New(sink).
		Level(level).
		With().
		Timestamp().
		Str("service", opts.Service).
		Logger()

	return logger, sink, nil
}
