package apiclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// DefaultPort is used when the API endpoint does not carry an explicit port
const DefaultPort = "8443"

/* Client performs single authenticated JSON calls against the remote API.
 * It never retries; the caller decides what a failure means.
 */
type Client struct {
	base *url.URL
	http *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithInsecureSkipVerify disables certificate verification, for
// development servers with self-signed certificates.
func WithInsecureSkipVerify(skip bool) Option {
	return func(c *Client) {
		if !skip {
			return
		}
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		c.http = &http.Client{Transport: tr}
	}
}

// New parses the API endpoint. Only scheme, host and port are used;
// request paths are supplied per call.
func New(endpoint string, opts ...Option) (*Client, error) {
	base, err := BaseURL(endpoint)
	if err != nil {
		return nil, err
	}
	c := &Client{base: base, http: http.DefaultClient}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL normalizes an endpoint: https when no scheme is given and
// DefaultPort when no port is given.
func BaseURL(endpoint string) (*url.URL, error) {
	if endpoint == "" {
		return nil, errors.New("api endpoint is empty")
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing api endpoint: %w", err)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("api endpoint %q has no host", endpoint)
	}
	if u.Port() == "" {
		u.Host = net.JoinHostPort(u.Hostname(), DefaultPort)
	}
	return &url.URL{Scheme: u.Scheme, Host: u.Host}, nil
}

// Endpoint returns the normalized base URL
func (c *Client) Endpoint() string {
	return c.base.String()
}

type callOptions struct {
	method string
}

// CallOption configures a single call
type CallOption func(*callOptions)

// WithMethod overrides the default POST method
func WithMethod(method string) CallOption {
	return func(o *callOptions) {
		o.method = method
	}
}

// Call sends exactly one request to the endpoint plus path with a bearer
// token. The body is JSON encoded and only sent for POST requests.
// An empty token sends no Authorization header.
func (c *Client) Call(ctx context.Context, path string, body any, token string, opts ...CallOption) (Result, error) {
	o := callOptions{method: http.MethodPost}
	for _, opt := range opts {
		opt(&o)
	}

	target := c.base.JoinPath(path)

	var reader io.Reader
	if o.method == http.MethodPost && body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return Result{}, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, o.method, target.String(), reader)
	if err != nil {
		return Result{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, &TransportError{Method: o.method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, &TransportError{Method: o.method, Path: path, Err: fmt.Errorf("reading response body: %w", err)}
	}

	return newResult(resp.StatusCode, raw), nil
}
