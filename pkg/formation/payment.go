package formation

import (
	"context"
	"fmt"

	"github.com/aretw0/charter/pkg/domain"
	"github.com/aretw0/charter/pkg/validate"
)

// PaymentReadiness is the read-only aggregate gate run before handing a
// session to the payment collaborator. This is where the "ownership need
// not sum to 100% yet" relaxation from AddShareholder is finally enforced
// strictly.
func (s *Service) PaymentReadiness(ctx context.Context, sessionID string) (*ReadinessReport, error) {
	var report *ReadinessReport
	err := s.view(ctx, sessionID, func(sess *domain.FormationSession) error {
		report = readiness(sess)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func readiness(sess *domain.FormationSession) *ReadinessReport {
	report := &ReadinessReport{
		OwnershipTotal: sess.OwnershipTotal(),
	}
	report.OwnershipComplete = validate.OwnershipSumComplete(report.OwnershipTotal)

	missing := func(field string) {
		report.MissingFields = append(report.MissingFields, field)
	}

	if sess.CompanyDetails == nil || sess.CompanyDetails.FullName == "" {
		missing("full_name")
	}
	if sess.CompanyDetails == nil || sess.CompanyDetails.State == "" {
		missing("state")
	}
	if sess.CompanyDetails == nil || sess.CompanyDetails.CompanyType == "" {
		missing("company_type")
	}
	if sess.CompanyDetails == nil || sess.CompanyDetails.Address == nil {
		missing("company_address")
	}
	if len(sess.Shareholders) == 0 {
		missing("shareholders")
	}
	if sess.RegisteredAgent == nil {
		missing("registered_agent")
	}
	if sess.AuthorizedParty == nil {
		missing("authorized_party")
	}

	report.Ready = len(report.MissingFields) == 0 && report.OwnershipComplete
	return report
}

// PreparePayment runs the readiness gate and, when it passes, marks the
// session's payment as pending for the hand-off.
func (s *Service) PreparePayment(ctx context.Context, sessionID string) (*Result, error) {
	return s.update(ctx, sessionID, func(sess *domain.FormationSession) (*Result, error) {
		report := readiness(sess)
		if !report.Ready {
			if !report.OwnershipComplete {
				return nil, domain.NewValidationError("shareholders",
					fmt.Sprintf("total ownership is %.2f%%, must equal 100%% (±%.2f) before payment", report.OwnershipTotal, validate.OwnershipTolerance))
			}
			return nil, domain.NewValidationError(report.MissingFields[0], "required before payment hand-off")
		}

		sess.PaymentStatus = domain.PaymentPending
		return newResult(sess, "Session is payment-ready; hand-off marked pending."), nil
	})
}

// CompletePayment records the payment collaborator's success and moves the
// session to the terminal Completed step.
func (s *Service) CompletePayment(ctx context.Context, sessionID string) (*Result, error) {
	return s.update(ctx, sessionID, func(sess *domain.FormationSession) (*Result, error) {
		if sess.PaymentStatus != domain.PaymentPending {
			return nil, domain.NewValidationError("payment_status",
				fmt.Sprintf("payment is %q, expected %q", sess.PaymentStatus, domain.PaymentPending))
		}

		sess.PaymentStatus = domain.PaymentCompleted
		s.advanceStep(sess, domain.StepCompleted)
		return newResult(sess, "Payment completed. Formation is finished."), nil
	})
}

// FailPayment records the payment collaborator's failure. The session
// stays where it is; payment can be re-prepared.
func (s *Service) FailPayment(ctx context.Context, sessionID string) (*Result, error) {
	return s.update(ctx, sessionID, func(sess *domain.FormationSession) (*Result, error) {
		sess.PaymentStatus = domain.PaymentFailed
		return newResult(sess, "Payment failed. Resolve the issue and prepare payment again."), nil
	})
}
