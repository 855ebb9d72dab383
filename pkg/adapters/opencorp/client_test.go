package opencorp_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/charter/pkg/adapters/opencorp"
	"github.com/aretw0/charter/pkg/ports"
)

func TestNameCheck(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/name-check", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]any{
			"available":   false,
			"reason":      "name already registered",
			"suggestions": []string{"Acme Holdings LLC"},
		})
	}))
	defer srv.Close()

	client := opencorp.NewClient(srv.URL, opencorp.WithAPIKey("test-key"))
	resp, err := client.Check(context.Background(), "Acme LLC", "DE", "LLC")
	require.NoError(t, err)

	assert.Equal(t, "Acme LLC", got["name"])
	assert.Equal(t, "DE", got["state"])
	assert.Equal(t, "LLC", got["company_type"])
	assert.False(t, resp.Available)
	assert.Equal(t, "name already registered", resp.Reason)
	assert.Equal(t, []string{"Acme Holdings LLC"}, resp.Suggestions)
}

func TestGenerateCertificate(t *testing.T) {
	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/certificates", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "Acme LLC", body["company_name"])
		json.NewEncoder(w).Encode(map[string]any{
			"certificate_id": "cert-42",
			"download_url":   "https://filings.example/cert-42.pdf",
			"expires_at":     expires,
		})
	}))
	defer srv.Close()

	client := opencorp.NewClient(srv.URL)
	resp, err := client.Generate(context.Background(), ports.CertificateRequest{
		CompanyName:     "Acme LLC",
		State:           "DE",
		CompanyType:     "LLC",
		RegisteredAgent: "Atlas Agents",
		AuthorizedParty: "Grace Hopper",
	})
	require.NoError(t, err)
	assert.Equal(t, "cert-42", resp.CertificateID)
	assert.Equal(t, "https://filings.example/cert-42.pdf", resp.DownloadURL)
	assert.True(t, expires.Equal(resp.ExpiresAt))
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"available": true})
	}))
	defer srv.Close()

	client := opencorp.NewClient(srv.URL,
		opencorp.WithRetries(3),
		opencorp.WithBackoff(time.Millisecond))
	resp, err := client.Check(context.Background(), "Acme LLC", "DE", "LLC")
	require.NoError(t, err)
	assert.True(t, resp.Available)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := opencorp.NewClient(srv.URL,
		opencorp.WithRetries(2),
		opencorp.WithBackoff(time.Millisecond))
	_, err := client.Check(context.Background(), "Acme LLC", "DE", "LLC")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gave up after 2 attempts")
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientErrorIsTerminal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := opencorp.NewClient(srv.URL,
		opencorp.WithRetries(3),
		opencorp.WithBackoff(time.Millisecond))
	_, err := client.Check(context.Background(), "Acme LLC", "DE", "LLC")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "4xx answers must not be retried")
}

func TestContextCancelStopsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := opencorp.NewClient(srv.URL,
		opencorp.WithRetries(5),
		opencorp.WithBackoff(50*time.Millisecond))
	_, err := client.Check(ctx, "Acme LLC", "DE", "LLC")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
