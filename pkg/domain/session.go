package domain

import (
	"time"
)

// SessionStatus is the coarse lifecycle marker of a formation session.
// It is mutated only by state-machine transitions.
type SessionStatus string

const (
	StatusCreated    SessionStatus = "created"
	StatusInProgress SessionStatus = "in_progress"
	StatusReview     SessionStatus = "review"     // Certificate generated, awaiting approval
	StatusCompleted  SessionStatus = "completed"  // Certificate approved
	StatusAbandoned  SessionStatus = "abandoned"  // Explicitly given up by the caller
	StatusExpired    SessionStatus = "expired"    // TTL elapsed
)

// PaymentStatus tracks the hand-off to the payment collaborator.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Address is a full postal address. All fields except Line2 are required
// wherever an address is accepted.
type Address struct {
	Line1      string `json:"line1" yaml:"line1" mapstructure:"line1"`
	Line2      string `json:"line2,omitempty" yaml:"line2,omitempty" mapstructure:"line2"`
	City       string `json:"city" yaml:"city" mapstructure:"city"`
	State      string `json:"state" yaml:"state" mapstructure:"state"`
	PostalCode string `json:"postal_code" yaml:"postal_code" mapstructure:"postal_code"`
	Country    string `json:"country" yaml:"country" mapstructure:"country"`
}

// CompanyDetails is progressively filled across the early steps.
// Once FullName is derived it is treated as immutable for a normal flow;
// editing requires re-running state/type/ending/name.
type CompanyDetails struct {
	State        string   `json:"state,omitempty"`
	CompanyType  string   `json:"company_type,omitempty"`
	EntityEnding string   `json:"entity_ending,omitempty"`
	BaseName     string   `json:"base_name,omitempty"`
	FullName     string   `json:"full_name,omitempty"`
	Description  string   `json:"description,omitempty"`
	Address      *Address `json:"address,omitempty"`

	// AddressSource records how the company address was obtained
	// ("custom" or "agent"). Informational.
	AddressSource string `json:"address_source,omitempty"`

	// VirtualMailInterested is set when the caller opted into virtual
	// post mail information during address collection.
	VirtualMailInterested bool `json:"virtual_mail_interested,omitempty"`
}

// RegisteredAgent is always persisted complete; no partial agent exists.
type RegisteredAgent struct {
	Name    string  `json:"name" mapstructure:"name"`
	Email   string  `json:"email" mapstructure:"email"`
	Phone   string  `json:"phone" mapstructure:"phone"`
	Address Address `json:"address" mapstructure:"address"`

	// IsDefault marks the system-provided agent as opposed to a
	// caller-supplied one.
	IsDefault bool `json:"is_default"`
}

// ShareStructure applies only to share-issuing company types (not LLC).
type ShareStructure struct {
	AuthorizedShares int64   `json:"authorized_shares"`
	ParValuePerShare float64 `json:"par_value_per_share"`
}

// Shareholder is a member/shareholder record. The list on a session is
// append-only during the flow; ownership is validated at the
// payment-readiness boundary, not on append.
type Shareholder struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name" mapstructure:"name"`
	Email               string  `json:"email" mapstructure:"email"`
	Phone               string  `json:"phone,omitempty" mapstructure:"phone"`
	OwnershipPercentage float64 `json:"ownership_percentage" mapstructure:"ownership_percentage"`
	Address             Address `json:"address" mapstructure:"address"`
	Role                string  `json:"role,omitempty" mapstructure:"role"`
}

// AuthorizedParty is the natural person authorized to sign the filing.
type AuthorizedParty struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// NameCheckResult caches the most recent name-availability check.
// Advisory only: it never blocks progression, even on failure.
type NameCheckResult struct {
	Available   bool      `json:"available"`
	CheckedAt   time.Time `json:"checked_at"`
	Reason      string    `json:"reason,omitempty"`
	Suggestions []string  `json:"suggestions,omitempty"`

	// Failed marks a check that could not complete (timeout, collaborator
	// error). Distinct from Available=false, which is a definitive answer.
	Failed bool `json:"failed,omitempty"`
}

// CertificateData is populated once a certificate has been generated.
type CertificateData struct {
	CertificateID string     `json:"certificate_id"`
	DownloadURL   string     `json:"download_url"`
	GeneratedAt   time.Time  `json:"generated_at"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`
	ExpiresAt     time.Time  `json:"expires_at"`
}

// FormationSession is the aggregate root of one company-formation workflow.
type FormationSession struct {
	SessionID   string        `json:"session_id"`
	Status      SessionStatus `json:"status"`
	CurrentStep Step          `json:"current_step"`

	CompanyDetails  *CompanyDetails  `json:"company_details,omitempty"`
	RegisteredAgent *RegisteredAgent `json:"registered_agent,omitempty"`
	ShareStructure  *ShareStructure  `json:"share_structure,omitempty"`
	Shareholders    []Shareholder    `json:"shareholders"`
	AuthorizedParty *AuthorizedParty `json:"authorized_party,omitempty"`
	NameCheck       *NameCheckResult `json:"name_check,omitempty"`
	Certificate     *CertificateData `json:"certificate,omitempty"`
	PaymentStatus   PaymentStatus    `json:"payment_status,omitempty"`

	// Sealed carries the opaque encrypted payload when the session is
	// persisted through the encryption middleware. Empty otherwise.
	Sealed string `json:"sealed,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	// ExpiresAt is fixed at creation and never extended. An expired
	// session is permanently unusable and must be recreated.
	ExpiresAt time.Time `json:"expires_at"`
}

// NewSession creates a fresh session starting at StepCreated.
// ID allocation belongs to the store; it assigns SessionID.
func NewSession(id string, now time.Time, ttl time.Duration) *FormationSession {
	return &FormationSession{
		SessionID:    id,
		Status:       StatusCreated,
		CurrentStep:  StepCreated,
		Shareholders: []Shareholder{},
		CreatedAt:    now,
		UpdatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}
}

// Expired reports whether the session TTL has elapsed as of now.
// The boundary is inclusive: a session loaded exactly at ExpiresAt is dead.
func (s *FormationSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// CompanyType returns the selected company type, or "" if not set yet.
func (s *FormationSession) CompanyType() string {
	if s.CompanyDetails == nil {
		return ""
	}
	return s.CompanyDetails.CompanyType
}

// OwnershipTotal is the exact running sum of shareholder ownership
// percentages. No clamping or normalization is ever applied.
func (s *FormationSession) OwnershipTotal() float64 {
	var total float64
	for _, sh := range s.Shareholders {
		total += sh.OwnershipPercentage
	}
	return total
}

// Clone returns a deep copy of the session so stores can isolate their
// persisted value from caller mutation.
func (s *FormationSession) Clone() *FormationSession {
	c := *s
	if s.CompanyDetails != nil {
		cd := *s.CompanyDetails
		if s.CompanyDetails.Address != nil {
			addr := *s.CompanyDetails.Address
			cd.Address = &addr
		}
		c.CompanyDetails = &cd
	}
	if s.RegisteredAgent != nil {
		ra := *s.RegisteredAgent
		c.RegisteredAgent = &ra
	}
	if s.ShareStructure != nil {
		ss := *s.ShareStructure
		c.ShareStructure = &ss
	}
	if s.Shareholders != nil {
		c.Shareholders = make([]Shareholder, len(s.Shareholders))
		copy(c.Shareholders, s.Shareholders)
	}
	if s.AuthorizedParty != nil {
		ap := *s.AuthorizedParty
		c.AuthorizedParty = &ap
	}
	if s.NameCheck != nil {
		nc := *s.NameCheck
		if s.NameCheck.Suggestions != nil {
			nc.Suggestions = append([]string(nil), s.NameCheck.Suggestions...)
		}
		c.NameCheck = &nc
	}
	if s.Certificate != nil {
		cert := *s.Certificate
		if s.Certificate.ApprovedAt != nil {
			at := *s.Certificate.ApprovedAt
			cert.ApprovedAt = &at
		}
		c.Certificate = &cert
	}
	return &c
}
