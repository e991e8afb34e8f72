package app

import (
	"fmt"

	"github.com/marcelsud/timeherenow-example/apiclient"
	"github.com/marcelsud/timeherenow-example/config"
	"github.com/marcelsud/timeherenow-example/sdk"
	"github.com/marcelsud/timeherenow-example/session"
	"github.com/marcelsud/timeherenow-example/session/redis"
	"github.com/marcelsud/timeherenow-example/webhook/signature"
	"github.com/rs/zerolog"
)

/* app wires the pieces shared by the api and cli binaries.
 * Imports only go downwards: binaries import app, app imports the
 * business and storage packages.
 */

// SDK bundles the SDK client with the API client it talks through
type SDK struct {
	Client *sdk.HTTPClient
	API    *apiclient.Client
	close  func() error
}

// Close releases the session storage
func (s *SDK) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// NewSDK loads the identity file, selects the session storage and builds
// the SDK client
func NewSDK(cfg *config.Config, logger zerolog.Logger, perf sdk.PerformanceService) (*SDK, error) {
	loader := sdk.NewIdentityLoader()
	if err := loader.Load(cfg.IdentityFile); err != nil {
		return nil, err
	}
	identity, err := loader.Identity()
	if err != nil {
		return nil, err
	}

	api, err := apiclient.New(identity.APIEndpoint, apiclient.WithInsecureSkipVerify(cfg.APIInsecureSkipVerify))
	if err != nil {
		return nil, fmt.Errorf("creating api client: %w", err)
	}

	storage, closeStorage, err := newSessionStorage(cfg)
	if err != nil {
		return nil, err
	}

	client, err := sdk.NewHTTPClient(sdk.Options{
		Identity:     identity,
		ClientID:     cfg.SDKClientID,
		ClientSecret: cfg.SDKClientSecret,
		API:          api,
		Sessions:     session.NewManager(storage),
		Performance:  perf,
		Logger:       logger.With().Str("component", "sdk").Logger(),
	})
	if err != nil {
		_ = closeStorage()
		return nil, err
	}

	return &SDK{Client: client, API: api, close: closeStorage}, nil
}

func newSessionStorage(cfg *config.Config) (session.Storage, func() error, error) {
	switch cfg.SessionStorage {
	case config.SessionStorageRedis:
		st, err := redis.NewStorage(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	default:
		return session.NewMemoryStorage(), func() error { return nil }, nil
	}
}

// SigningSecret parses the configured webhook secret, nil when unset
func SigningSecret(cfg *config.Config) (*signature.Secret, error) {
	if cfg.WebhookSigningSecret == "" {
		return nil, nil
	}
	secret, err := signature.ParseSecret(cfg.WebhookSigningSecret)
	if err != nil {
		return nil, fmt.Errorf("parsing WEBHOOK_SIGNING_SECRET: %w", err)
	}
	return &secret, nil
}
