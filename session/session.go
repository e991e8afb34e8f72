package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a session id is unknown or expired
var ErrNotFound = errors.New("session not found")

// Session is one login recorded by the SDK client
type Session struct {
	ID        string
	Subject   string
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Active reports whether the session is still valid at now. A session
// without an expiry never expires.
func (s Session) Active(now time.Time) bool {
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

type Reader interface {
	Get(ctx context.Context, id string) (Session, error)
	CountActive(ctx context.Context) (int, error)
}

type Writer interface {
	Save(ctx context.Context, s Session) error
	Delete(ctx context.Context, id string) error
}

// Storage is a session backend. Kind names it for display.
type Storage interface {
	Reader
	Writer
	Kind() string
}
