// Package opencorp implements the external filing collaborators over HTTP:
// the state name-availability check and certificate-of-formation
// generation. Both endpoints are flaky by nature, so the client owns a
// bounded retry policy and the callers only ever see a final answer.
package opencorp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/charter/internal/logging"
	"github.com/aretw0/charter/pkg/ports"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultMaxRetries = 3
	defaultBackoff    = 250 * time.Millisecond
)

// Client talks to the filing collaborator API. It implements both
// ports.NameChecker and ports.CertificateGenerator.
type Client struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
	maxRetries int
	backoff    time.Duration
	logger     *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithAPIKey sets the bearer token sent on every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithRetries sets how many attempts a request gets before the failure is
// surfaced. Values below 1 are clamped to 1.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n < 1 {
			n = 1
		}
		c.maxRetries = n
	}
}

// WithBackoff sets the base delay between attempts. The delay doubles on
// each retry.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// WithLogger attaches a logger for per-attempt diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient builds a collaborator client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		maxRetries: defaultMaxRetries,
		backoff:    defaultBackoff,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type nameCheckRequest struct {
	Name        string `json:"name"`
	State       string `json:"state"`
	CompanyType string `json:"company_type"`
}

type nameCheckResponse struct {
	Available   bool     `json:"available"`
	Reason      string   `json:"reason,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Check queries the state registry for availability of fullName.
func (c *Client) Check(ctx context.Context, fullName, state, companyType string) (*ports.NameCheckResponse, error) {
	req := nameCheckRequest{Name: fullName, State: state, CompanyType: companyType}
	var resp nameCheckResponse
	if err := c.post(ctx, "/v1/name-check", req, &resp); err != nil {
		return nil, fmt.Errorf("name check for %q: %w", fullName, err)
	}
	return &ports.NameCheckResponse{
		Available:   resp.Available,
		Reason:      resp.Reason,
		Suggestions: resp.Suggestions,
	}, nil
}

type certificateRequest struct {
	CompanyName     string   `json:"company_name"`
	State           string   `json:"state"`
	CompanyType     string   `json:"company_type"`
	RegisteredAgent string   `json:"registered_agent"`
	AuthorizedParty string   `json:"authorized_party"`
	ShareholderIDs  []string `json:"shareholder_ids,omitempty"`
}

type certificateResponse struct {
	CertificateID string            `json:"certificate_id"`
	DownloadURL   string            `json:"download_url"`
	ExpiresAt     time.Time         `json:"expires_at"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Generate renders a certificate of formation for the given request.
func (c *Client) Generate(ctx context.Context, req ports.CertificateRequest) (*ports.CertificateResponse, error) {
	body := certificateRequest{
		CompanyName:     req.CompanyName,
		State:           req.State,
		CompanyType:     req.CompanyType,
		RegisteredAgent: req.RegisteredAgent,
		AuthorizedParty: req.AuthorizedParty,
		ShareholderIDs:  req.ShareholderIDs,
	}
	var resp certificateResponse
	if err := c.post(ctx, "/v1/certificates", body, &resp); err != nil {
		return nil, fmt.Errorf("certificate generation for %q: %w", req.CompanyName, err)
	}
	return &ports.CertificateResponse{
		CertificateID: resp.CertificateID,
		DownloadURL:   resp.DownloadURL,
		ExpiresAt:     resp.ExpiresAt,
		Metadata:      resp.Metadata,
	}, nil
}

// post sends the request with bounded retry. 5xx answers and transport
// errors are retried with doubling delay; 4xx answers are terminal since
// resending the same payload cannot change the outcome.
func (c *Client) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	var lastErr error
	delay := c.backoff
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		lastErr = c.doOnce(ctx, path, payload, out)
		if lastErr == nil {
			return nil
		}
		if terminal, ok := lastErr.(*statusError); ok && !terminal.retryable() {
			return lastErr
		}
		c.logger.Warn("collaborator request failed",
			"path", path,
			"attempt", attempt,
			"err", lastErr)
	}
	return fmt.Errorf("gave up after %d attempts: %w", c.maxRetries, lastErr)
}

func (c *Client) doOnce(ctx context.Context, path string, payload []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &statusError{code: resp.StatusCode, body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.code, e.body)
}

func (e *statusError) retryable() bool {
	return e.code >= 500 || e.code == http.StatusTooManyRequests
}
