package formation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/charter/pkg/adapters/memory"
	"github.com/aretw0/charter/pkg/domain"
	"github.com/aretw0/charter/pkg/formation"
	"github.com/aretw0/charter/pkg/ports"
	"github.com/aretw0/charter/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clock is a mutable time source shared by the store and the service.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeNameChecker struct {
	resp *ports.NameCheckResponse
	err  error
	// calls records the names checked.
	calls []string
}

func (f *fakeNameChecker) Check(ctx context.Context, fullName, state, companyType string) (*ports.NameCheckResponse, error) {
	f.calls = append(f.calls, fullName)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type fakeCertGenerator struct {
	resp  *ports.CertificateResponse
	err   error
	calls int
}

func (f *fakeCertGenerator) Generate(ctx context.Context, req ports.CertificateRequest) (*ports.CertificateResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type fixture struct {
	svc   *formation.Service
	clk   *clock
	names *fakeNameChecker
	certs *fakeCertGenerator
}

func newFixture(t *testing.T, opts ...formation.Option) *fixture {
	t.Helper()

	clk := newClock()
	store := memory.NewStore(memory.WithClock(clk.Now))
	locks := session.NewManager()

	names := &fakeNameChecker{resp: &ports.NameCheckResponse{Available: true}}
	certs := &fakeCertGenerator{resp: &ports.CertificateResponse{
		CertificateID: "cert-123",
		DownloadURL:   "https://docs.example/cert-123.pdf",
		ExpiresAt:     clk.Now().Add(time.Hour),
	}}

	base := []formation.Option{
		formation.WithClock(clk.Now),
		formation.WithNameChecker(names),
		formation.WithCertificateGenerator(certs),
	}
	svc := formation.NewService(store, locks, append(base, opts...)...)

	return &fixture{svc: svc, clk: clk, names: names, certs: certs}
}

func (f *fixture) start(t *testing.T) string {
	t.Helper()
	res, err := f.svc.Start(context.Background())
	require.NoError(t, err)
	return res.SessionID
}

func usAddress() domain.Address {
	return domain.Address{
		Line1:      "100 Main St",
		City:       "Wilmington",
		State:      "DE",
		PostalCode: "19801",
		Country:    "US",
	}
}

func shareholder(name, email string, pct float64) domain.Shareholder {
	return domain.Shareholder{
		Name:                name,
		Email:               email,
		OwnershipPercentage: pct,
		Address:             usAddress(),
		Role:                "member",
	}
}

// runLLCFlow drives a session through the full LLC happy path up to (not
// including) certificate generation.
func (f *fixture) runLLCFlow(t *testing.T, id string) {
	t.Helper()
	ctx := context.Background()

	_, err := f.svc.SetState(ctx, id, "DE")
	require.NoError(t, err)
	_, err = f.svc.SetCompanyType(ctx, id, "LLC")
	require.NoError(t, err)
	_, err = f.svc.SetEntityEnding(ctx, id, "LLC")
	require.NoError(t, err)
	_, err = f.svc.SetCompanyName(ctx, id, "Acme")
	require.NoError(t, err)
	_, err = f.svc.CheckName(ctx, id)
	require.NoError(t, err)
	useDefault := true
	_, err = f.svc.SetRegisteredAgent(ctx, id, formation.SetRegisteredAgentRequest{UseDefault: &useDefault})
	require.NoError(t, err)
	_, err = f.svc.AddShareholder(ctx, id, shareholder("Pat", "pat@example.com", 100))
	require.NoError(t, err)
	_, err = f.svc.SetAuthorizedParty(ctx, id, "Pat Doe", "Managing Member")
	require.NoError(t, err)
}

func TestStart(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.Start(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, res.SessionID)
	assert.Equal(t, domain.StatusCreated, res.Status)
	assert.Equal(t, domain.StepCreated, res.Step)
	assert.Equal(t, domain.StepStateSelected, res.NextStep)
	assert.Equal(t, 0, res.Progress)
}

func TestNameComposition(t *testing.T) {
	// Scenario: DE + LLC + "LLC" ending + "Acme" => "Acme LLC".
	f := newFixture(t)
	id := f.start(t)
	ctx := context.Background()

	_, err := f.svc.SetState(ctx, id, "DE")
	require.NoError(t, err)
	_, err = f.svc.SetCompanyType(ctx, id, "LLC")
	require.NoError(t, err)
	_, err = f.svc.SetEntityEnding(ctx, id, "LLC")
	require.NoError(t, err)

	res, err := f.svc.SetCompanyName(ctx, id, "Acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme LLC", res.FullName)
	assert.Equal(t, domain.StepNameSet, res.Step)
}

func TestTypeStateCrossValidation(t *testing.T) {
	// Wyoming only offers LLC; asking for C-Corp lists the alternatives.
	f := newFixture(t)
	id := f.start(t)
	ctx := context.Background()

	_, err := f.svc.SetState(ctx, id, "WY")
	require.NoError(t, err)

	_, err = f.svc.SetCompanyType(ctx, id, "C-Corp")
	require.Error(t, err)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "company_type", verr.Field)
	assert.Equal(t, []string{"LLC"}, verr.Valid)
}

func TestPreconditionOrdering(t *testing.T) {
	f := newFixture(t)
	id := f.start(t)
	ctx := context.Background()

	// Type before state.
	_, err := f.svc.SetCompanyType(ctx, id, "LLC")
	var req *domain.RequiredFieldError
	require.ErrorAs(t, err, &req)
	assert.Equal(t, "state", req.Field)

	// Ending before type.
	_, err = f.svc.SetEntityEnding(ctx, id, "LLC")
	require.ErrorAs(t, err, &req)
	assert.Equal(t, "company_type", req.Field)

	// Name before ending.
	_, err = f.svc.SetCompanyName(ctx, id, "Acme")
	require.ErrorAs(t, err, &req)
	assert.Equal(t, "entity_ending", req.Field)

	// Name check before name.
	_, err = f.svc.CheckName(ctx, id)
	require.ErrorAs(t, err, &req)
	assert.Equal(t, "full_name", req.Field)
}

func TestStepMonotonicity(t *testing.T) {
	f := newFixture(t)
	id := f.start(t)
	ctx := context.Background()

	f.runLLCFlow(t, id)

	status, err := f.svc.Status(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.StepAuthorizedPartySet, status.Step)

	// Re-invoking an earlier handler overwrites the field but does not
	// roll CurrentStep backward (default policy).
	res, err := f.svc.SetState(ctx, id, "DE")
	require.NoError(t, err)
	assert.Equal(t, domain.StepAuthorizedPartySet, res.Step)
}

func TestRewindOnEdit(t *testing.T) {
	f := newFixture(t, formation.WithConfig(formation.Config{RewindOnEdit: true}))
	id := f.start(t)
	ctx := context.Background()

	f.runLLCFlow(t, id)

	res, err := f.svc.SetState(ctx, id, "WY")
	require.NoError(t, err)
	assert.Equal(t, domain.StepStateSelected, res.Step)
}

func TestIdempotentReinvocation(t *testing.T) {
	f := newFixture(t)
	id := f.start(t)
	ctx := context.Background()

	_, err := f.svc.SetState(ctx, id, "DE")
	require.NoError(t, err)

	first, err := f.svc.SetCompanyType(ctx, id, "LLC")
	require.NoError(t, err)
	second, err := f.svc.SetCompanyType(ctx, id, "LLC")
	require.NoError(t, err)

	assert.Equal(t, first.Step, second.Step)
	assert.Equal(t, first.Progress, second.Progress)

	status, err := f.svc.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "LLC", status.Session.CompanyDetails.CompanyType)
}

func TestOwnershipRunningTotal(t *testing.T) {
	// Scenario: 60% then 50% => reported total 110%, call still succeeds;
	// the payment-readiness gate rejects.
	f := newFixture(t)
	id := f.start(t)
	ctx := context.Background()

	_, err := f.svc.SetState(ctx, id, "DE")
	require.NoError(t, err)
	_, err = f.svc.SetCompanyType(ctx, id, "LLC")
	require.NoError(t, err)

	res, err := f.svc.AddShareholder(ctx, id, shareholder("A", "a@example.com", 60))
	require.NoError(t, err)
	assert.InDelta(t, 60, res.OwnershipTotal, 0.0001)

	res, err = f.svc.AddShareholder(ctx, id, shareholder("B", "b@example.com", 50))
	require.NoError(t, err)
	assert.InDelta(t, 110, res.OwnershipTotal, 0.0001)
	assert.Equal(t, 2, res.ShareholderCount)

	ready, err := f.svc.PaymentReadiness(ctx, id)
	require.NoError(t, err)
	assert.False(t, ready.Ready)
	assert.False(t, ready.OwnershipComplete)
	assert.InDelta(t, 110, ready.OwnershipTotal, 0.0001)
}

func TestShareholderValidation(t *testing.T) {
	f := newFixture(t)
	id := f.start(t)
	ctx := context.Background()

	var verr *domain.ValidationError

	bad := shareholder("X", "not-an-email", 50)
	_, err := f.svc.AddShareholder(ctx, id, bad)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "shareholder.email", verr.Field)

	bad = shareholder("X", "x@example.com", 0)
	_, err = f.svc.AddShareholder(ctx, id, bad)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "shareholder.ownership_percentage", verr.Field)

	bad = shareholder("X", "x@example.com", 50)
	bad.Address.PostalCode = ""
	_, err = f.svc.AddShareholder(ctx, id, bad)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "shareholder.address.postal_code", verr.Field)
}

func TestLLCShortCircuit(t *testing.T) {
	f := newFixture(t)
	id := f.start(t)
	ctx := context.Background()

	_, err := f.svc.SetState(ctx, id, "DE")
	require.NoError(t, err)
	_, err = f.svc.SetCompanyType(ctx, id, "LLC")
	require.NoError(t, err)

	before, err := f.svc.Status(ctx, id)
	require.NoError(t, err)

	res, err := f.svc.SetShareStructure(ctx, id, formation.SetShareStructureRequest{})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, before.Step, res.Step, "LLC short-circuit must not move the step")

	status, err := f.svc.Status(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, status.Session.ShareStructure)
	assert.NotContains(t, status.RemainingSteps, domain.StepSharesSet)
}

func TestCorpShareStructure(t *testing.T) {
	f := newFixture(t)
	id := f.start(t)
	ctx := context.Background()

	_, err := f.svc.SetState(ctx, id, "DE")
	require.NoError(t, err)
	_, err = f.svc.SetCompanyType(ctx, id, "C-Corp")
	require.NoError(t, err)

	// Ambiguous choice yields an ask, not a mutation.
	res, err := f.svc.SetShareStructure(ctx, id, formation.SetShareStructureRequest{})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.True(t, res.ChoiceRequired)

	useDefault := true
	res, err = f.svc.SetShareStructure(ctx, id, formation.SetShareStructureRequest{UseDefault: &useDefault})
	require.NoError(t, err)
	assert.Equal(t, domain.StepSharesSet, res.Step)

	status, err := f.svc.Status(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, status.Session.ShareStructure)
	assert.Equal(t, int64(10_000_000), status.Session.ShareStructure.AuthorizedShares)

	// Custom values within bounds.
	custom := false
	res, err = f.svc.SetShareStructure(ctx, id, formation.SetShareStructureRequest{
		UseDefault:       &custom,
		AuthorizedShares: 5000,
		ParValuePerShare: 0.01,
	})
	require.NoError(t, err)

	status, err = f.svc.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), status.Session.ShareStructure.AuthorizedShares)
}

func TestRegisteredAgentExplicitChoice(t *testing.T) {
	f := newFixture(t)
	id := f.start(t)
	ctx := context.Background()

	_, err := f.svc.SetState(ctx, id, "DE")
	require.NoError(t, err)

	// Ambiguous: neither default nor custom chosen.
	res, err := f.svc.SetRegisteredAgent(ctx, id, formation.SetRegisteredAgentRequest{})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.True(t, res.ChoiceRequired)

	status, err := f.svc.Status(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, status.Session.RegisteredAgent, "ambiguous choice must not persist an agent")

	// Custom agent with a missing field is rejected whole; no partial
	// agent is ever persisted.
	useCustom := false
	_, err = f.svc.SetRegisteredAgent(ctx, id, formation.SetRegisteredAgentRequest{
		UseDefault: &useCustom,
		Agent: &domain.RegisteredAgent{
			Name:  "Agent Smith",
			Email: "smith@example.com",
			// Phone missing
			Address: usAddress(),
		},
	})
	require.Error(t, err)

	status, err = f.svc.Status(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, status.Session.RegisteredAgent)

	// Default agent.
	useDefault := true
	res, err = f.svc.SetRegisteredAgent(ctx, id, formation.SetRegisteredAgentRequest{UseDefault: &useDefault})
	require.NoError(t, err)
	assert.Equal(t, domain.StepAgentSet, res.Step)

	status, err = f.svc.Status(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, status.Session.RegisteredAgent)
	assert.True(t, status.Session.RegisteredAgent.IsDefault)
	assert.Equal(t, "DE", status.Session.RegisteredAgent.Address.State)
}

func TestNameCheckAdvisory(t *testing.T) {
	f := newFixture(t)
	f.names.err = errors.New("upstream timeout")

	id := f.start(t)
	ctx := context.Background()

	_, err := f.svc.SetState(ctx, id, "DE")
	require.NoError(t, err)
	_, err = f.svc.SetCompanyType(ctx, id, "LLC")
	require.NoError(t, err)
	_, err = f.svc.SetEntityEnding(ctx, id, "LLC")
	require.NoError(t, err)
	_, err = f.svc.SetCompanyName(ctx, id, "Acme")
	require.NoError(t, err)

	// Collaborator failure does not block progression.
	res, err := f.svc.CheckName(ctx, id)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, domain.StepNameChecked, res.Step)
	require.NotNil(t, res.NameCheck)
	assert.True(t, res.NameCheck.Failed)

	// The failed result is cached on the session.
	status, err := f.svc.Status(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, status.Session.NameCheck)
	assert.True(t, status.Session.NameCheck.Failed)
}

func TestNameCheckBlockingPolicy(t *testing.T) {
	f := newFixture(t, formation.WithConfig(formation.Config{BlockOnNameCheck: true}))
	f.names.resp = &ports.NameCheckResponse{Available: false, Reason: "name taken"}

	id := f.start(t)
	ctx := context.Background()

	_, err := f.svc.SetState(ctx, id, "DE")
	require.NoError(t, err)
	_, err = f.svc.SetCompanyType(ctx, id, "LLC")
	require.NoError(t, err)
	_, err = f.svc.SetEntityEnding(ctx, id, "LLC")
	require.NoError(t, err)
	_, err = f.svc.SetCompanyName(ctx, id, "Acme")
	require.NoError(t, err)

	_, err = f.svc.CheckName(ctx, id)
	require.Error(t, err)
	assert.True(t, domain.Retryable(err))
}

func TestGenerateCertificatePreconditions(t *testing.T) {
	// Missing authorizedParty: ValidationError names it and the
	// collaborator is never invoked.
	f := newFixture(t)
	id := f.start(t)
	ctx := context.Background()

	_, err := f.svc.SetState(ctx, id, "DE")
	require.NoError(t, err)
	_, err = f.svc.SetCompanyType(ctx, id, "LLC")
	require.NoError(t, err)
	_, err = f.svc.SetEntityEnding(ctx, id, "LLC")
	require.NoError(t, err)
	_, err = f.svc.SetCompanyName(ctx, id, "Acme")
	require.NoError(t, err)
	useDefault := true
	_, err = f.svc.SetRegisteredAgent(ctx, id, formation.SetRegisteredAgentRequest{UseDefault: &useDefault})
	require.NoError(t, err)
	_, err = f.svc.AddShareholder(ctx, id, shareholder("Pat", "pat@example.com", 100))
	require.NoError(t, err)

	_, err = f.svc.GenerateCertificate(ctx, id)
	var req *domain.RequiredFieldError
	require.ErrorAs(t, err, &req)
	assert.Equal(t, "authorized_party", req.Field)
	assert.Equal(t, 0, f.certs.calls)
}

func TestGenerateAndApproveCertificate(t *testing.T) {
	f := newFixture(t)
	id := f.start(t)
	ctx := context.Background()

	f.runLLCFlow(t, id)

	res, err := f.svc.GenerateCertificate(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReview, res.Status)
	assert.Equal(t, domain.StepCertificateGenerated, res.Step)
	require.NotNil(t, res.Certificate)
	assert.Equal(t, "cert-123", res.Certificate.CertificateID)

	res, err = f.svc.ApproveCertificate(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, res.Status)
	assert.Equal(t, domain.StepCertificateApproved, res.Step)
	require.NotNil(t, res.Certificate.ApprovedAt)
}

func TestApproveExpiredCertificate(t *testing.T) {
	// Certificate expiry 60 minutes; approval attempted at 70 minutes.
	f := newFixture(t)
	f.certs.resp.ExpiresAt = f.clk.Now().Add(60 * time.Minute)

	id := f.start(t)
	ctx := context.Background()

	f.runLLCFlow(t, id)

	_, err := f.svc.GenerateCertificate(ctx, id)
	require.NoError(t, err)

	f.clk.Advance(70 * time.Minute)

	_, err = f.svc.ApproveCertificate(ctx, id)
	assert.ErrorIs(t, err, domain.ErrCertificateExpired)
	assert.True(t, domain.Retryable(err))

	status, err := f.svc.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReview, status.Status, "status must remain Review after a failed approval")
}

func TestGenerateCertificateCollaboratorFailure(t *testing.T) {
	f := newFixture(t)
	f.certs.err = errors.New("render service down")

	id := f.start(t)
	f.runLLCFlow(t, id)

	_, err := f.svc.GenerateCertificate(context.Background(), id)
	require.Error(t, err)

	var collab *domain.CollaboratorError
	require.ErrorAs(t, err, &collab)
	assert.True(t, collab.Retryable)
	assert.Equal(t, "certificate_generation", collab.Op)
}

func TestSessionExpiryBoundary(t *testing.T) {
	f := newFixture(t)
	id := f.start(t)
	ctx := context.Background()

	// One unit of time before expiry: still usable.
	f.clk.Advance(24*time.Hour - time.Second)
	_, err := f.svc.SetState(ctx, id, "DE")
	require.NoError(t, err)

	// At/after expiry: every handler fails with ErrSessionExpired.
	f.clk.Advance(time.Second)
	_, err = f.svc.SetCompanyType(ctx, id, "LLC")
	assert.ErrorIs(t, err, domain.ErrSessionExpired)

	_, err = f.svc.Status(ctx, id)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
}

func TestSessionNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SetState(context.Background(), "missing-id", "DE")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestPaymentFlow(t *testing.T) {
	f := newFixture(t)
	id := f.start(t)
	ctx := context.Background()

	f.runLLCFlow(t, id)
	_, err := f.svc.SetCompanyAddress(ctx, id, formation.SetCompanyAddressRequest{Source: formation.AddressSourceAgent})
	require.NoError(t, err)

	ready, err := f.svc.PaymentReadiness(ctx, id)
	require.NoError(t, err)
	assert.True(t, ready.Ready)

	res, err := f.svc.PreparePayment(ctx, id)
	require.NoError(t, err)
	require.True(t, res.Success)

	status, err := f.svc.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPending, status.Session.PaymentStatus)

	res, err = f.svc.CompletePayment(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StepCompleted, res.Step)
	assert.Equal(t, 100, res.Progress)
}

func TestCompanyAddress(t *testing.T) {
	f := newFixture(t)
	id := f.start(t)
	ctx := context.Background()

	// Agent source before an agent exists.
	_, err := f.svc.SetCompanyAddress(ctx, id, formation.SetCompanyAddressRequest{Source: formation.AddressSourceAgent})
	var req *domain.RequiredFieldError
	require.ErrorAs(t, err, &req)
	assert.Equal(t, "registered_agent", req.Field)

	// Custom address must be complete.
	incomplete := usAddress()
	incomplete.Line1 = ""
	_, err = f.svc.SetCompanyAddress(ctx, id, formation.SetCompanyAddressRequest{
		Source:  formation.AddressSourceCustom,
		Address: &incomplete,
	})
	require.Error(t, err)

	addr := usAddress()
	res, err := f.svc.SetCompanyAddress(ctx, id, formation.SetCompanyAddressRequest{
		Source:                formation.AddressSourceCustom,
		Address:               &addr,
		VirtualMailInterested: true,
	})
	require.NoError(t, err)
	assert.True(t, res.Success)

	status, err := f.svc.Status(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, status.Session.CompanyDetails.Address)
	assert.True(t, status.Session.CompanyDetails.VirtualMailInterested)
}

func TestStatusProgress(t *testing.T) {
	f := newFixture(t)
	id := f.start(t)
	ctx := context.Background()

	f.runLLCFlow(t, id)

	status, err := f.svc.Resume(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StepAuthorizedPartySet, status.Step)
	assert.Equal(t, domain.StepCertificateGenerated, status.NextStep)
	assert.Len(t, status.CompletedSteps, 9)
	assert.Len(t, status.RemainingSteps, 3)
	assert.Greater(t, status.Progress, 50)
	assert.Less(t, status.Progress, 100)
}

func TestAbandon(t *testing.T) {
	f := newFixture(t)
	id := f.start(t)

	res, err := f.svc.Abandon(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAbandoned, res.Status)
}
