package sdk

import (
	"context"
	"errors"
	"time"

	"github.com/marcelsud/timeherenow-example/metrics"
	"github.com/rs/zerolog"
)

// ErrNoToken is returned when a login response carries no token
var ErrNoToken = errors.New("login response carried no token")

// LoginResult is the outcome of a successful login
type LoginResult struct {
	Token       string
	APIEndpoint string
	ExpiresAt   time.Time
	SessionID   string
}

// SessionManager exposes the session bookkeeping of the SDK
type SessionManager interface {
	ActiveSessionCount(ctx context.Context) (int, error)
	StorageType() string
}

// PerformanceService exposes request metrics
type PerformanceService interface {
	Metrics() metrics.Metrics
}

// Client is the authentication SDK as seen by the demo server
type Client interface {
	Login(ctx context.Context) (LoginResult, error)
	OwnConfig(ctx context.Context) (Identity, error)
	Sessions() SessionManager
	// Performance may return nil when no performance service is wired
	Performance() PerformanceService
	Logger() zerolog.Logger
}
