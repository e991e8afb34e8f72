package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

/* Config is a helper package. It could be an external lib */

const (
	SessionStorageMemory = "memory"
	SessionStorageRedis  = "redis"
)

// ErrInvalidConfig wraps every validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	LokiURL       string `mapstructure:"LOKI_URL"`
	LogLevel      string `mapstructure:"LOG_LEVEL"`
	LokiBasicAuth string `mapstructure:"LOKI_BASIC_AUTH"`
	ServiceName   string `mapstructure:"SERVICE_NAME"`

	IdentityFile          string `mapstructure:"IDENTITY_FILE"`
	SDKClientID           string `mapstructure:"SDK_CLIENT_ID"`
	SDKClientSecret       string `mapstructure:"SDK_CLIENT_SECRET"`
	APIInsecureSkipVerify bool   `mapstructure:"API_INSECURE_SKIP_VERIFY"`

	CertFile string `mapstructure:"CERT_FILE"`
	KeyFile  string `mapstructure:"KEY_FILE"`

	SessionStorage string `mapstructure:"SESSION_STORAGE"`
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisDB        int    `mapstructure:"REDIS_DB"`

	WebhookSigningSecret string        `mapstructure:"WEBHOOK_SIGNING_SECRET"`
	DemoSchedule         string        `mapstructure:"DEMO_SCHEDULE"`
	ShutdownTimeout      time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

var defaults = map[string]any{
	"LOKI_URL":                 "",
	"LOG_LEVEL":                "info",
	"LOKI_BASIC_AUTH":          "",
	"SERVICE_NAME":             "timeherenow-example",
	"IDENTITY_FILE":            "identity.yaml",
	"SDK_CLIENT_ID":            "",
	"SDK_CLIENT_SECRET":        "",
	"API_INSECURE_SKIP_VERIFY": false,
	"CERT_FILE":                "certs/fullchain.pem",
	"KEY_FILE":                 "certs/privkey.pem",
	"SESSION_STORAGE":          SessionStorageMemory,
	"REDIS_ADDR":               "",
	"REDIS_PASSWORD":           "",
	"REDIS_DB":                 0,
	"WEBHOOK_SIGNING_SECRET":   "",
	"DEMO_SCHEDULE":            "",
	"SHUTDOWN_TIMEOUT":         "30s",
}

// GetConfig reads .env from the working directory, overridden by the
// environment. A missing .env is not an error.
func GetConfig() (*Config, error) {
	return Load(".")
}

// Load reads the .env file found in dir
func Load(dir string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetConfigName(".env")
	v.SetConfigType("toml")
	v.AddConfigPath(dir)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("parsing config data: %w", err)
	}
	config.SessionStorage = strings.ToLower(config.SessionStorage)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("%w: LOG_LEVEL %q", ErrInvalidConfig, c.LogLevel)
	}
	switch c.SessionStorage {
	case SessionStorageMemory:
	case SessionStorageRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: REDIS_ADDR is required when SESSION_STORAGE is redis", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: SESSION_STORAGE %q", ErrInvalidConfig, c.SessionStorage)
	}
	if c.LokiBasicAuth != "" && !strings.Contains(c.LokiBasicAuth, ":") {
		return fmt.Errorf("%w: LOKI_BASIC_AUTH must be user:password", ErrInvalidConfig)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: SHUTDOWN_TIMEOUT must be positive", ErrInvalidConfig)
	}
	return nil
}
