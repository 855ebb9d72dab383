package middleware

import (
	"context"
	"strings"

	"github.com/aretw0/charter/pkg/domain"
	"github.com/aretw0/charter/pkg/ports"
)

const piiMask = "***"

type piiMiddleware struct {
	next ports.SessionStore
}

// NewPIIMiddleware creates a middleware that masks contact details of
// shareholders and the registered agent before the session hits the store.
// Reads return the masked values; the in-memory session held by the caller
// is never touched.
func NewPIIMiddleware() Middleware {
	return func(next ports.SessionStore) ports.SessionStore {
		return &piiMiddleware{next: next}
	}
}

func (m *piiMiddleware) Create(ctx context.Context) (*domain.FormationSession, error) {
	return m.next.Create(ctx)
}

func (m *piiMiddleware) Get(ctx context.Context, sessionID string) (*domain.FormationSession, error) {
	return m.next.Get(ctx, sessionID)
}

func (m *piiMiddleware) Save(ctx context.Context, session *domain.FormationSession) error {
	// Clone so masking never leaks back into the session the service is
	// still working with.
	scrubbed := session.Clone()
	scrubSession(scrubbed)

	if err := m.next.Save(ctx, scrubbed); err != nil {
		return err
	}
	session.UpdatedAt = scrubbed.UpdatedAt
	return nil
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) (bool, error) {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]*domain.FormationSession, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) Cleanup(ctx context.Context) (int, error) {
	return m.next.Cleanup(ctx)
}

func scrubSession(session *domain.FormationSession) {
	if session.RegisteredAgent != nil && !session.RegisteredAgent.IsDefault {
		session.RegisteredAgent.Email = maskEmail(session.RegisteredAgent.Email)
		session.RegisteredAgent.Phone = maskPhone(session.RegisteredAgent.Phone)
	}
	for i := range session.Shareholders {
		session.Shareholders[i].Email = maskEmail(session.Shareholders[i].Email)
		session.Shareholders[i].Phone = maskPhone(session.Shareholders[i].Phone)
	}
}

// maskEmail keeps the domain so support can still route inquiries.
func maskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return piiMask
	}
	return piiMask + email[at:]
}

// maskPhone keeps the last two digits for confirmation prompts.
func maskPhone(phone string) string {
	if len(phone) <= 2 {
		return piiMask
	}
	return piiMask + phone[len(phone)-2:]
}
