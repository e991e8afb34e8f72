package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/marcelsud/timeherenow-example/webhook/payload"
	"github.com/marcelsud/timeherenow-example/webhook/signature"
)

var (
	// ErrInvalidPayload is returned when the notification body cannot be decoded
	ErrInvalidPayload = errors.New("invalid webhook payload")
	// ErrUnauthorized is returned when signature verification is enabled and fails
	ErrUnauthorized = errors.New("webhook signature rejected")
)

/* Service represents the business logic layer
 * Uses pointer semantics as it's an API, not data
 */

// UseCase defines the operations of the webhook receiver
type UseCase interface {
	Receive(ctx context.Context, requestID string, body []byte, headers http.Header) (Record, error)
	List(ctx context.Context) (Page, error)
}

// Page is the read-back view of the store
type Page struct {
	Count    int      `json:"count"`
	Webhooks []Record `json:"webhooks"`
}

type Service struct {
	Repo     Repository
	Verifier *signature.Verifier
	Now      func() time.Time
}

// NewService creates a new webhook service with dependency injection
func NewService(repo Repository) *Service {
	return &Service{
		Repo: repo,
		Now:  time.Now,
	}
}

// WithVerifier enables Standard Webhooks signature checks on Receive
func (s *Service) WithVerifier(v *signature.Verifier) *Service {
	s.Verifier = v
	return s
}

// Receive decodes a notification and appends it to the repository
func (s *Service) Receive(ctx context.Context, requestID string, body []byte, headers http.Header) (Record, error) {
	if s.Verifier != nil {
		if err := s.Verifier.Verify(headers, body); err != nil {
			return Record{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
		}
	}

	n, err := payload.Parse(body)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	record := Record{
		ReceivedAt: s.Now().UTC(),
		Event:      n.Event,
		Data:       n.Data,
		RequestID:  requestID,
	}

	if err := s.Repo.Append(record); err != nil {
		return Record{}, fmt.Errorf("storing webhook: %w", err)
	}

	return record, nil
}

// List returns the total count and the most recent PageSize records
func (s *Service) List(ctx context.Context) (Page, error) {
	records, total := s.Repo.Tail(PageSize)
	return Page{
		Count:    total,
		Webhooks: records,
	}, nil
}
