package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/marcelsud/timeherenow-example/sdk"
	"github.com/rs/zerolog"
)

// FallbackPort is used when the webhook URL has no trailing port
const FallbackPort = 443

// ErrMissingWebhookURL is returned when the SDK configuration has no webhook URL
var ErrMissingWebhookURL = errors.New("webhook url missing from sdk configuration")

var trailingPort = regexp.MustCompile(`:(\d+)$`)

// PortFromWebhookURL takes the port from a trailing ":<digits>" suffix of
// the whole URL string. Anything else, a path after the port included,
// yields FallbackPort.
func PortFromWebhookURL(webhookURL string) int {
	m := trailingPort.FindStringSubmatch(webhookURL)
	if m == nil {
		return FallbackPort
	}
	port, err := strconv.Atoi(m[1])
	if err != nil || port > 65535 {
		return FallbackPort
	}
	return port
}

type Config struct {
	CertFile string
	KeyFile  string
	// Host is the interface to bind, all interfaces when empty
	Host string
}

/* Context is the state owned by the lifecycle manager: the SDK handle,
 * the running server with its listener and the computed port.
 */
type Context struct {
	SDK      sdk.Client
	Server   *http.Server
	Listener net.Listener
	Port     int
}

type Server struct {
	cfg     Config
	handler http.Handler
	logger  zerolog.Logger
	ctx     Context
	errs    chan error
}

func New(cfg Config, client sdk.Client, handler http.Handler, logger zerolog.Logger) *Server {
	return &Server{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
		ctx:     Context{SDK: client},
		errs:    make(chan error, 1),
	}
}

// Start resolves the port, loads the certificate and binds the listener
// before returning. Serving continues in the background; serve failures
// are reported on Errors.
func (s *Server) Start(ctx context.Context) error {
	identity, err := s.ctx.SDK.OwnConfig(ctx)
	if err != nil {
		return fmt.Errorf("reading sdk configuration: %w", err)
	}
	if identity.WebhookURL == "" {
		return ErrMissingWebhookURL
	}
	port := PortFromWebhookURL(identity.WebhookURL)

	cert, err := tls.LoadX509KeyPair(s.cfg.CertFile, s.cfg.KeyFile)
	if err != nil {
		return fmt.Errorf("loading certificate: %w", err)
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(s.cfg.Host, strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("binding port %d: %w", port, err)
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		TLSConfig: &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		},
	}

	s.ctx.Server = srv
	s.ctx.Listener = ln
	s.ctx.Port = ln.Addr().(*net.TCPAddr).Port

	s.logger.Info().
		Int("port", s.ctx.Port).
		Str("webhook_url", identity.WebhookURL).
		Msg("https server listening")

	go func() {
		if err := srv.ServeTLS(ln, "", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errs <- err
		}
	}()

	return nil
}

// Errors delivers a serve failure after Start
func (s *Server) Errors() <-chan error {
	return s.errs
}

// Context returns the lifecycle state
func (s *Server) Context() Context {
	return s.ctx
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx expires
func (s *Server) Shutdown(ctx context.Context) error {
	if s.ctx.Server == nil {
		return nil
	}
	if err := s.ctx.Server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	s.logger.Info().Msg("https server closed")
	return nil
}
