package formation

import (
	"context"
	"time"

	"log/slog"

	"github.com/aretw0/charter/internal/logging"
	"github.com/aretw0/charter/pkg/domain"
	"github.com/aretw0/charter/pkg/ports"
	"github.com/aretw0/charter/pkg/session"
)

// Service is the formation state machine. It owns no transport concerns;
// adapters (MCP, HTTP, CLI) call its methods with already-typed input.
type Service struct {
	store   ports.SessionStore
	locks   *session.Manager
	names   ports.NameChecker
	certs   ports.CertificateGenerator
	catalog *domain.Catalog
	cfg     Config
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithNameChecker wires the name-availability collaborator. Without one,
// CheckName records an advisory failure.
func WithNameChecker(nc ports.NameChecker) Option {
	return func(s *Service) {
		s.names = nc
	}
}

// WithCertificateGenerator wires the document-generation collaborator.
func WithCertificateGenerator(cg ports.CertificateGenerator) Option {
	return func(s *Service) {
		s.certs = cg
	}
}

// WithCatalog overrides the built-in state/type/ending offering.
func WithCatalog(c *domain.Catalog) Option {
	return func(s *Service) {
		s.catalog = c
	}
}

// WithConfig sets the policy switches.
func WithConfig(cfg Config) Option {
	return func(s *Service) {
		s.cfg = cfg
	}
}

// WithLogger configures structured logging.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService constructs the state machine over a session store and lock
// manager.
func NewService(store ports.SessionStore, locks *session.Manager, opts ...Option) *Service {
	s := &Service{
		store:   store,
		locks:   locks,
		catalog: domain.DefaultCatalog(),
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog exposes the active offering for adapters that need to present
// options (the CLI prompt flow, tool descriptions).
func (s *Service) Catalog() *domain.Catalog {
	return s.catalog
}

// Store exposes the underlying session store for administrative
// collaborators (cleanup loops, debug listings).
func (s *Service) Store() ports.SessionStore {
	return s.store
}

// Start creates a fresh session. Always succeeds barring store I/O.
func (s *Service) Start(ctx context.Context) (*Result, error) {
	sess, err := s.store.Create(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("formation session started", "session_id", sess.SessionID, "expires_at", sess.ExpiresAt)

	res := newResult(sess, "Formation session started. Select the state of incorporation to begin.")
	return res, nil
}

// update is the session loading gate plus save, shared by every mutating
// handler: lock, look up, reject missing or expired sessions, run fn for
// in-place mutation, persist.
func (s *Service) update(ctx context.Context, sessionID string, fn func(*domain.FormationSession) (*Result, error)) (*Result, error) {
	var result *Result
	err := s.locks.WithLock(ctx, sessionID, func(ctx context.Context) error {
		sess, err := s.gate(ctx, sessionID)
		if err != nil {
			return err
		}

		result, err = fn(sess)
		if err != nil {
			return err
		}
		if result != nil && !result.Success {
			// Declined without mutation (e.g. ambiguous choice); skip save.
			return nil
		}
		return s.store.Save(ctx, sess)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// view runs a read-only function under the gate, without saving.
func (s *Service) view(ctx context.Context, sessionID string, fn func(*domain.FormationSession) error) error {
	return s.locks.WithLock(ctx, sessionID, func(ctx context.Context) error {
		sess, err := s.gate(ctx, sessionID)
		if err != nil {
			return err
		}
		return fn(sess)
	})
}

// gate enforces "no operation may touch a dead or unknown session".
func (s *Service) gate(ctx context.Context, sessionID string) (*domain.FormationSession, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Expired(s.now()) {
		return nil, domain.ErrSessionExpired
	}
	return sess, nil
}

// advanceStep moves CurrentStep to the named destination. Forward moves
// always apply; backward moves apply only when RewindOnEdit is on, so the
// default behavior never rolls progress back on a re-edit.
func (s *Service) advanceStep(sess *domain.FormationSession, step domain.Step) {
	companyType := sess.CompanyType()
	if sess.CurrentStep == step {
		return
	}
	if domain.StepIsBefore(sess.CurrentStep, step, companyType) || s.cfg.RewindOnEdit {
		sess.CurrentStep = step
	}
}

// markInProgress bumps a freshly created session into the active status.
func (s *Service) markInProgress(sess *domain.FormationSession) {
	if sess.Status == domain.StatusCreated {
		sess.Status = domain.StatusInProgress
	}
}
