package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

/* Manager represents the business logic layer for sessions
 * Uses pointer semantics as it's an API, not data
 */
type Manager struct {
	storage Storage
	now     func() time.Time
}

func NewManager(storage Storage) *Manager {
	return &Manager{storage: storage, now: time.Now}
}

// Create records a new session for subject
func (m *Manager) Create(ctx context.Context, subject, token string, expiresAt time.Time) (Session, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Session{}, fmt.Errorf("generating session id: %w", err)
	}
	s := Session{
		ID:        id.String(),
		Subject:   subject,
		Token:     token,
		IssuedAt:  m.now().UTC(),
		ExpiresAt: expiresAt,
	}
	if err := m.storage.Save(ctx, s); err != nil {
		return Session{}, fmt.Errorf("saving session: %w", err)
	}
	return s, nil
}

func (m *Manager) Get(ctx context.Context, id string) (Session, error) {
	return m.storage.Get(ctx, id)
}

// End removes a session. Ending an unknown session is not an error.
func (m *Manager) End(ctx context.Context, id string) error {
	if err := m.storage.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

func (m *Manager) ActiveSessionCount(ctx context.Context) (int, error) {
	n, err := m.storage.CountActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting sessions: %w", err)
	}
	return n, nil
}

// StorageType names the backend in use
func (m *Manager) StorageType() string {
	return m.storage.Kind()
}
