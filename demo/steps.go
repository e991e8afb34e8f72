package demo

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/marcelsud/timeherenow-example/apiclient"
	"github.com/marcelsud/timeherenow-example/webhook/payload"
	"github.com/marcelsud/timeherenow-example/webhook/signature"
)

// Step names, in run order
const (
	StepAuthentication     = "authentication"
	StepConfiguration      = "configuration"
	StepAuthenticatedCalls = "authenticated-calls"
	StepSessions           = "sessions"
	StepPerformance        = "performance"
	StepWebhooks           = "webhooks"
	StepTimer              = "timer"
	StepIPLookup           = "ip-lookup"
	StepHashSigning        = "hash-signing"
	StepTimezoneQueries    = "timezone-queries"
	StepLogging            = "logging"
	StepMCPResources       = "mcp-resources"
)

// Step is one named demonstration. Run returns the fields worth showing.
type Step struct {
	Name string
	Run  func(ctx context.Context, o *Orchestrator) (map[string]any, error)
}

// Steps returns the fixed run order
func (o *Orchestrator) Steps() []Step {
	return []Step{
		{StepAuthentication, authentication},
		{StepConfiguration, configuration},
		{StepAuthenticatedCalls, authenticatedCalls},
		{StepSessions, sessions},
		{StepPerformance, performance},
		{StepWebhooks, webhooks},
		{StepTimer, timer},
		{StepIPLookup, ipLookup},
		{StepHashSigning, hashSigning},
		{StepTimezoneQueries, timezoneQueries},
		{StepLogging, logging},
		{StepMCPResources, mcpResources},
	}
}

// StepNames lists the step names in run order
func StepNames() []string {
	steps := (&Orchestrator{}).Steps()
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name
	}
	return names
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func sample(items []string, n int) []string {
	if len(items) < n {
		n = len(items)
	}
	return items[:n]
}

func authentication(ctx context.Context, o *Orchestrator) (map[string]any, error) {
	res, err := o.client.Login(ctx)
	if err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}
	summary := map[string]any{
		"hasToken":     res.Token != "",
		"tokenPreview": preview(res.Token, 50),
		"apiEndpoint":  res.APIEndpoint,
	}
	if !res.ExpiresAt.IsZero() {
		summary["expiresAt"] = res.ExpiresAt.Format(time.RFC3339)
	}
	if res.Token == "" {
		return summary, fmt.Errorf("login returned no token")
	}
	return summary, nil
}

func configuration(ctx context.Context, o *Orchestrator) (map[string]any, error) {
	id, err := o.client.OwnConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}
	routes, err := id.PermissionedRouteCount()
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"apiEndpoint":        id.APIEndpoint,
		"webhookUrl":         id.WebhookURL,
		"jwtDuration":        id.JWTDuration,
		"maxRequests":        id.MaxRequests,
		"rateLimitWindow":    id.MaxRequestsWindow,
		"permissionedRoutes": routes,
	}, nil
}

type timeData struct {
	UserIP      string `json:"user_ip,omitempty"`
	TimeZone    string `json:"time_zone"`
	DateTime    string `json:"date_time"`
	UTCDatetime string `json:"utc_datetime"`
	UTCOffset   any    `json:"utc_offset,omitempty"`
}

func authenticatedCalls(ctx context.Context, o *Orchestrator) (map[string]any, error) {
	token, err := o.token(ctx)
	if err != nil {
		return nil, err
	}

	var zones []string
	if err := o.call(ctx, token, "/api/timezone", map[string]any{}, &zones); err != nil {
		return nil, err
	}

	var td timeData
	if err := o.call(ctx, token, "/api/timezone/time", map[string]string{
		"timezone": "America/New_York",
		"locale":   "en-US",
	}, &td); err != nil {
		return nil, err
	}

	return map[string]any{
		"timezoneCount": len(zones),
		"sample":        sample(zones, 3),
		"timezone":      td.TimeZone,
		"currentTime":   td.DateTime,
		"utcTime":       td.UTCDatetime,
	}, nil
}

func sessions(ctx context.Context, o *Orchestrator) (map[string]any, error) {
	sm := o.client.Sessions()
	if sm == nil {
		return nil, fmt.Errorf("session manager not available")
	}
	n, err := sm.ActiveSessionCount(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"activeSessions": n,
		"storageType":    sm.StorageType(),
	}, nil
}

func performance(_ context.Context, o *Orchestrator) (map[string]any, error) {
	ps := o.client.Performance()
	if ps == nil {
		return map[string]any{"available": false}, nil
	}
	m := ps.Metrics()
	return map[string]any{
		"available":         true,
		"requestCount":      m.RequestCount,
		"errorCount":        m.ErrorCount,
		"requestsPerMinute": fmt.Sprintf("%.2f", m.RequestsPerMinute),
		"loadLevel":         m.LoadLevel,
	}, nil
}

// ExamplePayload is the notification shown by the webhooks step
func ExamplePayload() (payload.Notification, error) {
	return payload.New("data_created", map[string]any{
		"id":        123,
		"timestamp": "2024-01-01T00:00:00Z",
	})
}

func webhooks(ctx context.Context, o *Orchestrator) (map[string]any, error) {
	id, err := o.client.OwnConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}

	n, err := ExamplePayload()
	if err != nil {
		return nil, err
	}
	body, err := n.Bytes()
	if err != nil {
		return nil, err
	}
	summary := map[string]any{
		"webhookUrl":     id.WebhookURL,
		"examplePayload": string(body),
		"signed":         false,
	}

	if o.secret != nil {
		msgID := "msg_" + fmt.Sprint(o.now().UnixNano())
		h, err := signature.SignHeaders(*o.secret, msgID, o.now(), body)
		if err != nil {
			return nil, fmt.Errorf("signing example payload: %w", err)
		}
		summary["signed"] = true
		summary["webhookId"] = h.Get(signature.HeaderID)
		summary["signature"] = preview(h.Get(signature.HeaderSignature), 40)
	}
	return summary, nil
}

func timer(ctx context.Context, o *Orchestrator) (map[string]any, error) {
	token, err := o.token(ctx)
	if err != nil {
		return nil, err
	}

	var res struct {
		TimerID      any    `json:"timer_id"`
		ScheduledAt  string `json:"scheduled_at"`
		ExecuteAt    string `json:"execute_at"`
		DelaySeconds any    `json:"delay_seconds"`
	}
	if err := o.call(ctx, token, "/api/timers/schedule", map[string]any{
		"delay_seconds": 10,
		"payload": map[string]any{
			"message":   "Example timer webhook",
			"timestamp": o.now().UTC().Format(time.RFC3339),
		},
	}, &res); err != nil {
		return nil, err
	}

	return map[string]any{
		"timerId":      res.TimerID,
		"scheduledAt":  res.ScheduledAt,
		"executeAt":    res.ExecuteAt,
		"delaySeconds": res.DelaySeconds,
	}, nil
}

func ipLookup(ctx context.Context, o *Orchestrator) (map[string]any, error) {
	token, err := o.token(ctx)
	if err != nil {
		return nil, err
	}

	var td timeData
	if err := o.call(ctx, token, "/api/ip", map[string]string{"locale": "en-US"}, &td); err != nil {
		return nil, err
	}

	return map[string]any{
		"ip":          td.UserIP,
		"timezone":    td.TimeZone,
		"currentTime": td.DateTime,
		"utcOffset":   td.UTCOffset,
	}, nil
}

// ExampleHash is the base64url sha256 digest signed by the hash-signing step
func ExampleHash() string {
	sum := sha256.Sum256([]byte("example data"))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func hashSigning(ctx context.Context, o *Orchestrator) (map[string]any, error) {
	token, err := o.token(ctx)
	if err != nil {
		return nil, err
	}

	var res struct {
		Data struct {
			HashB64URL             string `json:"hash_b64url"`
			TimestampISO           string `json:"timestamp_iso"`
			LikelyTimeDifferenceMS any    `json:"likely_time_difference_ms"`
		} `json:"data"`
		SignatureB64URL string `json:"signature_base64url"`
	}
	if err := o.call(ctx, token, "/api/sign/hash", map[string]string{"hash_b64url": ExampleHash()}, &res); err != nil {
		return nil, err
	}
	if res.SignatureB64URL == "" {
		return nil, fmt.Errorf("unexpected response from /api/sign/hash: missing signature")
	}

	return map[string]any{
		"hash":             preview(res.Data.HashB64URL, 40),
		"timestamp":        res.Data.TimestampISO,
		"timeDifferenceMs": res.Data.LikelyTimeDifferenceMS,
		"signature":        preview(res.SignatureB64URL, 40),
	}, nil
}

func timezoneQueries(ctx context.Context, o *Orchestrator) (map[string]any, error) {
	token, err := o.token(ctx)
	if err != nil {
		return nil, err
	}

	var america []string
	if err := o.call(ctx, token, "/api/timezone/area", map[string]string{"area": "America"}, &america); err != nil {
		return nil, err
	}

	var us []string
	if err := o.call(ctx, token, "/api/timezones/by-country", map[string]string{"country_code": "US"}, &us); err != nil {
		return nil, err
	}

	return map[string]any{
		"americaCount":  len(america),
		"americaSample": sample(america, 3),
		"usCount":       len(us),
		"usSample":      sample(us, 3),
	}, nil
}

func logging(_ context.Context, o *Orchestrator) (map[string]any, error) {
	logger := o.client.Logger()
	logger.Info().
		Str("component", "Examples").
		Str("feature", "Logging").
		Time("timestamp", o.now().UTC()).
		Msg("Example structured log")
	return map[string]any{"emitted": true}, nil
}

func mcpResources(ctx context.Context, o *Orchestrator) (map[string]any, error) {
	token, err := o.token(ctx)
	if err != nil {
		return nil, err
	}

	var res struct {
		Resources []struct {
			Name string `json:"name"`
			URI  string `json:"uri"`
		} `json:"resources"`
	}
	if err := o.call(ctx, token, "/api/mcp/resources", nil, &res, apiclient.WithMethod(http.MethodGet)); err != nil {
		return nil, err
	}

	resources := make([]string, len(res.Resources))
	for i, r := range res.Resources {
		resources[i] = fmt.Sprintf("%s (%s)", r.Name, r.URI)
	}
	return map[string]any{
		"count":     len(resources),
		"resources": resources,
	}, nil
}
