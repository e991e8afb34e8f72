package signature

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// SecretPrefix is the prefix for Standard Webhooks symmetric secrets
	SecretPrefix = "whsec_"

	// Version is the version identifier for symmetric signatures
	Version = "v1"

	// MinSecretBytes is the minimum accepted secret size (192 bits)
	MinSecretBytes = 24

	// MaxSecretBytes is the maximum accepted secret size (512 bits)
	MaxSecretBytes = 64

	// DefaultTolerance is how far a webhook-timestamp may drift from now
	DefaultTolerance = 5 * time.Minute
)

// Standard Webhooks header names
const (
	HeaderID        = "webhook-id"
	HeaderTimestamp = "webhook-timestamp"
	HeaderSignature = "webhook-signature"
)

var (
	ErrMissingHeaders   = errors.New("missing webhook signature headers")
	ErrInvalidSignature = errors.New("no matching signature")
	ErrTimestampSkew    = errors.New("webhook timestamp outside tolerance")
)

// Secret is a Standard Webhooks signing secret
type Secret struct {
	raw     []byte
	encoded string
}

// GenerateSecret creates a random secret of the given size in bytes.
func GenerateSecret(size int) (Secret, error) {
	if size < MinSecretBytes || size > MaxSecretBytes {
		return Secret{}, fmt.Errorf("secret size must be between %d and %d bytes", MinSecretBytes, MaxSecretBytes)
	}

	raw := make([]byte, size)
	if _, err := rand.Read(raw); err != nil {
		return Secret{}, fmt.Errorf("generating random bytes: %w", err)
	}

	return Secret{raw: raw, encoded: SecretPrefix + base64.StdEncoding.EncodeToString(raw)}, nil
}

// ParseSecret parses a base64 secret carrying the whsec_ prefix
func ParseSecret(encoded string) (Secret, error) {
	if !strings.HasPrefix(encoded, SecretPrefix) {
		return Secret{}, fmt.Errorf("secret must start with %s prefix", SecretPrefix)
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(encoded, SecretPrefix))
	if err != nil {
		return Secret{}, fmt.Errorf("decoding base64 secret: %w", err)
	}
	if len(raw) < MinSecretBytes || len(raw) > MaxSecretBytes {
		return Secret{}, fmt.Errorf("secret size must be between %d and %d bytes", MinSecretBytes, MaxSecretBytes)
	}

	return Secret{raw: raw, encoded: encoded}, nil
}

func (s Secret) String() string {
	return s.encoded
}

// Sign returns the "v1,<base64>" signature of msgID.timestamp.payload
func Sign(secret Secret, msgID string, timestamp time.Time, payload []byte) (string, error) {
	if strings.Contains(msgID, ".") {
		return "", fmt.Errorf("message ID must not contain '.'")
	}
	return Version + "," + base64.StdEncoding.EncodeToString(mac(secret, msgID, timestamp.Unix(), payload)), nil
}

// SignHeaders builds the three Standard Webhooks headers for payload.
func SignHeaders(secret Secret, msgID string, timestamp time.Time, payload []byte) (http.Header, error) {
	sig, err := Sign(secret, msgID, timestamp, payload)
	if err != nil {
		return nil, err
	}
	h := http.Header{}
	h.Set(HeaderID, msgID)
	h.Set(HeaderTimestamp, strconv.FormatInt(timestamp.Unix(), 10))
	h.Set(HeaderSignature, sig)
	return h, nil
}

// Verifier checks inbound webhook headers against a secret.
type Verifier struct {
	Secret    Secret
	Tolerance time.Duration
	Now       func() time.Time
}

// NewVerifier creates a verifier with the default tolerance
func NewVerifier(secret Secret) *Verifier {
	return &Verifier{Secret: secret, Tolerance: DefaultTolerance, Now: time.Now}
}

// Verify checks the webhook-* headers of a request body.
// The signature header may carry several space-delimited signatures.
func (v *Verifier) Verify(h http.Header, payload []byte) error {
	msgID := h.Get(HeaderID)
	ts := h.Get(HeaderTimestamp)
	sigHeader := h.Get(HeaderSignature)
	if msgID == "" || ts == "" || sigHeader == "" {
		return ErrMissingHeaders
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return fmt.Errorf("parsing webhook timestamp: %w", err)
	}
	skew := v.Now().Sub(time.Unix(unix, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > v.Tolerance {
		return ErrTimestampSkew
	}

	expected := mac(v.Secret, msgID, unix, payload)
	for _, part := range strings.Fields(sigHeader) {
		version, encoded, ok := strings.Cut(part, ",")
		if !ok || version != Version {
			continue
		}
		got, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			continue
		}
		if hmac.Equal(got, expected) {
			return nil
		}
	}
	return ErrInvalidSignature
}

func mac(secret Secret, msgID string, unix int64, payload []byte) []byte {
	m := hmac.New(sha256.New, secret.raw)
	m.Write([]byte(msgID + "." + strconv.FormatInt(unix, 10) + "."))
	m.Write(payload)
	return m.Sum(nil)
}
