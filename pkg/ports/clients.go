package ports

import (
	"context"
	"time"
)

// NameCheckResponse is the collaborator's answer to a name-availability
// query.
type NameCheckResponse struct {
	Available   bool
	Reason      string
	Suggestions []string
}

// NameChecker is the external name-availability collaborator. Failures are
// advisory: the formation flow records them and continues.
type NameChecker interface {
	Check(ctx context.Context, fullName, state, companyType string) (*NameCheckResponse, error)
}

// CertificateRequest carries everything the generation collaborator needs
// to render a certificate of formation.
type CertificateRequest struct {
	CompanyName     string
	State           string
	CompanyType     string
	RegisteredAgent string
	AuthorizedParty string
	ShareholderIDs  []string
}

// CertificateResponse identifies a generated certificate document.
type CertificateResponse struct {
	CertificateID string
	DownloadURL   string
	ExpiresAt     time.Time
	Metadata      map[string]string
}

// CertificateGenerator is the external document-generation collaborator.
// Retry/backoff policy is owned by the implementation; the core only
// surfaces the final success or classified failure.
type CertificateGenerator interface {
	Generate(ctx context.Context, req CertificateRequest) (*CertificateResponse, error)
}
