package formation

import (
	"context"

	"github.com/aretw0/charter/pkg/domain"
)

// Status returns read-only progress and next-step introspection, derived
// entirely from the step-order table. Resume is an alias with friendlier
// intent: a caller reconnecting to an in-flight session.
func (s *Service) Status(ctx context.Context, sessionID string) (*StatusReport, error) {
	var report *StatusReport
	err := s.view(ctx, sessionID, func(sess *domain.FormationSession) error {
		companyType := sess.CompanyType()
		report = &StatusReport{
			SessionID:      sess.SessionID,
			Status:         sess.Status,
			Step:           sess.CurrentStep,
			NextStep:       domain.NextStep(sess.CurrentStep, companyType),
			Progress:       domain.ProgressPercent(sess.CurrentStep, companyType),
			CompletedSteps: domain.CompletedSteps(sess.CurrentStep, companyType),
			RemainingSteps: domain.RemainingSteps(sess.CurrentStep, companyType),
			Session:        sess,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// Resume is the reconnect entrypoint; identical to Status.
func (s *Service) Resume(ctx context.Context, sessionID string) (*StatusReport, error) {
	return s.Status(ctx, sessionID)
}

// Abandon marks the session as explicitly given up. The session remains
// readable until its TTL evicts it.
func (s *Service) Abandon(ctx context.Context, sessionID string) (*Result, error) {
	return s.update(ctx, sessionID, func(sess *domain.FormationSession) (*Result, error) {
		sess.Status = domain.StatusAbandoned
		return newResult(sess, "Formation session abandoned."), nil
	})
}
