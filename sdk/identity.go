package sdk

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

/* Identity is the metadata the SDK holds about this client:
 * where the API lives, where webhooks are delivered and the limits
 * granted to the client.
 */
type Identity struct {
	ID                 string `yaml:"id"`
	APIEndpoint        string `yaml:"api_endpoint"`
	WebhookURL         string `yaml:"webhook_url"`
	JWTDuration        int    `yaml:"jwt_duration"` // seconds
	MaxRequests        int    `yaml:"max_requests"` // per window
	MaxRequestsWindow  int    `yaml:"maxrq_window"` // seconds
	PermissionedRoutes string `yaml:"permissioned_routes"`
}

// Validate checks if the identity is usable by the demo server
func (i Identity) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("id cannot be empty")
	}
	if i.APIEndpoint == "" {
		return fmt.Errorf("api_endpoint cannot be empty for identity %s", i.ID)
	}
	if _, err := url.Parse(i.APIEndpoint); err != nil {
		return fmt.Errorf("invalid api_endpoint for identity %s: %w", i.ID, err)
	}
	if i.WebhookURL != "" {
		if _, err := url.Parse(i.WebhookURL); err != nil {
			return fmt.Errorf("invalid webhook_url for identity %s: %w", i.ID, err)
		}
	}
	if i.JWTDuration < 0 {
		return fmt.Errorf("jwt_duration cannot be negative for identity %s", i.ID)
	}
	if i.MaxRequests < 0 || i.MaxRequestsWindow < 0 {
		return fmt.Errorf("rate limits cannot be negative for identity %s", i.ID)
	}
	if _, err := i.PermissionedRouteCount(); err != nil {
		return fmt.Errorf("invalid permissioned_routes for identity %s: %w", i.ID, err)
	}
	return nil
}

// PermissionedRouteCount parses the JSON permission document and counts
// its entities. An empty document grants nothing.
func (i Identity) PermissionedRouteCount() (int, error) {
	if strings.TrimSpace(i.PermissionedRoutes) == "" {
		return 0, nil
	}
	var perms struct {
		Entities map[string]json.RawMessage `json:"entities"`
	}
	if err := json.Unmarshal([]byte(i.PermissionedRoutes), &perms); err != nil {
		return 0, fmt.Errorf("parsing permissioned routes: %w", err)
	}
	return len(perms.Entities), nil
}

// identityFile represents the structure of identity.yaml
type identityFile struct {
	Identity Identity `yaml:"identity"`
}

/* IdentityLoader reads the client identity from identity.yaml */
type IdentityLoader struct {
	identity *Identity
}

func NewIdentityLoader() *IdentityLoader {
	return &IdentityLoader{}
}

// Load reads, parses and validates the identity file
func (l *IdentityLoader) Load(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading identity file: %w", err)
	}

	var file identityFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing identity YAML: %w", err)
	}

	if err := file.Identity.Validate(); err != nil {
		return fmt.Errorf("validating identity: %w", err)
	}

	l.identity = &file.Identity
	return nil
}

// Identity returns the loaded identity
func (l *IdentityLoader) Identity() (Identity, error) {
	if l.identity == nil {
		return Identity{}, fmt.Errorf("identity not loaded")
	}
	return *l.identity, nil
}
