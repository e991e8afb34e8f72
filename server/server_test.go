package server_test

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/marcelsud/timeherenow-example/sdk"
	"github.com/marcelsud/timeherenow-example/sdk/mocks"
	"github.com/marcelsud/timeherenow-example/server"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPortFromWebhookURL(t *testing.T) {
	tests := []struct {
		url  string
		want int
	}{
		{"https://demo.example.com:3444", 3444},
		{"https://127.0.0.1:8443", 8443},
		{"https://demo.example.com", 443},
		{"https://demo.example.com:3444/webhook", 443},
		{"https://demo.example.com:99999", 443},
		{"", 443},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, server.PortFromWebhookURL(tt.url))
		})
	}
}

// writeCert creates a self-signed localhost certificate pair
func writeCert(t *testing.T) (string, string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "localhost"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		DNSNames:     []string{"localhost"},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	dir := t.TempDir()
	certFile := filepath.Join(dir, "fullchain.pem")
	keyFile := filepath.Join(dir, "privkey.pem")
	require.NoError(t, os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600))
	return certFile, keyFile
}

func sdkWithWebhookURL(t *testing.T, url string) *mocks.Client {
	client := mocks.NewClient(t)
	client.On("OwnConfig", mock.Anything).Return(sdk.Identity{ID: "c", APIEndpoint: "https://api", WebhookURL: url}, nil)
	return client
}

func TestServer_Start(t *testing.T) {
	ctx := context.Background()
	certFile, keyFile := writeCert(t)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})

	t.Run("success - serves tls and shuts down", func(t *testing.T) {
		srv := server.New(server.Config{CertFile: certFile, KeyFile: keyFile, Host: "127.0.0.1"},
			sdkWithWebhookURL(t, "https://127.0.0.1:0"), handler, zerolog.Nop())

		require.NoError(t, srv.Start(ctx))
		port := srv.Context().Port
		require.NotZero(t, port)

		client := &http.Client{Transport: &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}} //nolint:gosec
		resp, err := client.Get(fmt.Sprintf("https://127.0.0.1:%d/health", port))
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		assert.JSONEq(t, `{"status":"healthy"}`, string(body))

		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		require.NoError(t, srv.Shutdown(shutdownCtx))

		_, err = client.Get(fmt.Sprintf("https://127.0.0.1:%d/health", port))
		assert.Error(t, err)
	})

	t.Run("missing webhook url", func(t *testing.T) {
		srv := server.New(server.Config{CertFile: certFile, KeyFile: keyFile}, sdkWithWebhookURL(t, ""), handler, zerolog.Nop())
		assert.ErrorIs(t, srv.Start(ctx), server.ErrMissingWebhookURL)
	})

	t.Run("certificate load failure", func(t *testing.T) {
		srv := server.New(server.Config{CertFile: "missing.pem", KeyFile: "missing.pem"},
			sdkWithWebhookURL(t, "https://127.0.0.1:0"), handler, zerolog.Nop())
		err := srv.Start(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "loading certificate")
	})

	t.Run("bind failure", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		defer ln.Close()
		port := ln.Addr().(*net.TCPAddr).Port

		srv := server.New(server.Config{CertFile: certFile, KeyFile: keyFile, Host: "127.0.0.1"},
			sdkWithWebhookURL(t, fmt.Sprintf("https://127.0.0.1:%d", port)), handler, zerolog.Nop())
		err = srv.Start(ctx)
		require.Error(t, err)
		assert.False(t, errors.Is(err, server.ErrMissingWebhookURL))
	})

	t.Run("shutdown before start is a no-op", func(t *testing.T) {
		srv := server.New(server.Config{}, mocks.NewClient(t), handler, zerolog.Nop())
		assert.NoError(t, srv.Shutdown(ctx))
	})
}
