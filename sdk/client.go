package sdk

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/marcelsud/timeherenow-example/apiclient"
	"github.com/marcelsud/timeherenow-example/session"
	"github.com/rs/zerolog"
)

const loginPath = "/api/login"

type Options struct {
	Identity     Identity
	ClientID     string
	ClientSecret string
	API          *apiclient.Client
	Sessions     *session.Manager
	Performance  PerformanceService
	Logger       zerolog.Logger
}

/* HTTPClient implements Client against the remote API.
 * Tokens are issued by the API; this client only records them.
 */
type HTTPClient struct {
	identity     Identity
	clientID     string
	clientSecret string
	api          *apiclient.Client
	sessions     *session.Manager
	performance  PerformanceService
	logger       zerolog.Logger
	now          func() time.Time
}

func NewHTTPClient(opts Options) (*HTTPClient, error) {
	if err := opts.Identity.Validate(); err != nil {
		return nil, fmt.Errorf("validating identity: %w", err)
	}
	api := opts.API
	if api == nil {
		var err error
		api, err = apiclient.New(opts.Identity.APIEndpoint)
		if err != nil {
			return nil, fmt.Errorf("creating api client: %w", err)
		}
	}
	sessions := opts.Sessions
	if sessions == nil {
		sessions = session.NewManager(session.NewMemoryStorage())
	}
	return &HTTPClient{
		identity:     opts.Identity,
		clientID:     opts.ClientID,
		clientSecret: opts.ClientSecret,
		api:          api,
		sessions:     sessions,
		performance:  opts.Performance,
		logger:       opts.Logger,
		now:          time.Now,
	}, nil
}

type loginRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type loginResponse struct {
	JWTToken    string `json:"jwt_token"`
	APIEndpoint string `json:"apiendpoint"`
}

// Login obtains a token from the API and records a session for it
func (c *HTTPClient) Login(ctx context.Context) (LoginResult, error) {
	res, err := c.api.Call(ctx, loginPath, loginRequest{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
	}, "")
	if err != nil {
		return LoginResult{}, fmt.Errorf("logging in: %w", err)
	}
	if err := res.Err(); err != nil {
		return LoginResult{}, fmt.Errorf("logging in: %w", err)
	}

	var body loginResponse
	if err := res.Decode(&body); err != nil {
		return LoginResult{}, fmt.Errorf("logging in: %w", err)
	}
	if body.JWTToken == "" {
		return LoginResult{}, ErrNoToken
	}

	expiresAt, ok := TokenExpiry(body.JWTToken)
	if !ok && c.identity.JWTDuration > 0 {
		expiresAt = c.now().Add(time.Duration(c.identity.JWTDuration) * time.Second).UTC()
	}

	sess, err := c.sessions.Create(ctx, c.identity.ID, body.JWTToken, expiresAt)
	if err != nil {
		return LoginResult{}, fmt.Errorf("recording session: %w", err)
	}

	endpoint := body.APIEndpoint
	if endpoint == "" {
		endpoint = c.identity.APIEndpoint
	}

	c.logger.Debug().
		Str("session_id", sess.ID).
		Time("expires_at", expiresAt).
		Msg("login succeeded")

	return LoginResult{
		Token:       body.JWTToken,
		APIEndpoint: endpoint,
		ExpiresAt:   expiresAt,
		SessionID:   sess.ID,
	}, nil
}

func (c *HTTPClient) OwnConfig(ctx context.Context) (Identity, error) {
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}
	return c.identity, nil
}

func (c *HTTPClient) Sessions() SessionManager {
	return c.sessions
}

func (c *HTTPClient) Performance() PerformanceService {
	return c.performance
}

func (c *HTTPClient) Logger() zerolog.Logger {
	return c.logger
}

// TokenExpiry reads the exp claim of a JWT without verifying it. Tokens
// are validated by the API, the demo only displays the expiry.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time.UTC(), true
}
