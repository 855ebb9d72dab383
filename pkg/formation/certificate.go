package formation

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/charter/pkg/domain"
	"github.com/aretw0/charter/pkg/ports"
	"github.com/aretw0/charter/pkg/validate"
)

// SetAuthorizedParty records the natural person authorized to sign.
func (s *Service) SetAuthorizedParty(ctx context.Context, sessionID, name, title string) (*Result, error) {
	return s.update(ctx, sessionID, func(sess *domain.FormationSession) (*Result, error) {
		if err := validate.NonEmpty("name", name); err != nil {
			return nil, err
		}
		if err := validate.NonEmpty("title", title); err != nil {
			return nil, err
		}

		sess.AuthorizedParty = &domain.AuthorizedParty{Name: name, Title: title}
		s.markInProgress(sess)
		s.advanceStep(sess, domain.StepAuthorizedPartySet)

		return newResult(sess, fmt.Sprintf("Authorized party set to %s (%s). The certificate can be generated now.", name, title)), nil
	})
}

// GenerateCertificate calls the external document-generation collaborator.
// All data preconditions are checked first, so an incomplete session never
// reaches the collaborator. Failures are wrapped as retryable; a
// successful call is not automatically retried.
func (s *Service) GenerateCertificate(ctx context.Context, sessionID string) (*Result, error) {
	return s.update(ctx, sessionID, func(sess *domain.FormationSession) (*Result, error) {
		if sess.CompanyDetails == nil || sess.CompanyDetails.FullName == "" {
			return nil, domain.NewRequiredFieldError("full_name", domain.StepNameSet)
		}
		if sess.RegisteredAgent == nil {
			return nil, domain.NewRequiredFieldError("registered_agent", domain.StepAgentSet)
		}
		if len(sess.Shareholders) == 0 {
			return nil, domain.NewRequiredFieldError("shareholders", domain.StepShareholdersAdded)
		}
		if sess.AuthorizedParty == nil {
			return nil, domain.NewRequiredFieldError("authorized_party", domain.StepAuthorizedPartySet)
		}
		if s.certs == nil {
			return nil, &domain.CollaboratorError{
				Op:         "certificate_generation",
				Retryable:  false,
				Suggestion: "configure the certificate-generation service",
				Err:        errors.New("certificate generator is not configured"),
			}
		}

		ids := make([]string, len(sess.Shareholders))
		for i, sh := range sess.Shareholders {
			ids[i] = sh.ID
		}

		resp, err := s.certs.Generate(ctx, ports.CertificateRequest{
			CompanyName:     sess.CompanyDetails.FullName,
			State:           sess.CompanyDetails.State,
			CompanyType:     sess.CompanyDetails.CompanyType,
			RegisteredAgent: sess.RegisteredAgent.Name,
			AuthorizedParty: sess.AuthorizedParty.Name,
			ShareholderIDs:  ids,
		})
		if err != nil {
			s.logger.Error("certificate generation failed", "session_id", sess.SessionID, "err", err)
			return nil, &domain.CollaboratorError{
				Op:         "certificate_generation",
				Retryable:  true,
				Suggestion: "retry certificate generation",
				Err:        err,
			}
		}

		sess.Certificate = &domain.CertificateData{
			CertificateID: resp.CertificateID,
			DownloadURL:   resp.DownloadURL,
			GeneratedAt:   s.now(),
			ExpiresAt:     resp.ExpiresAt,
		}
		sess.Status = domain.StatusReview
		s.advanceStep(sess, domain.StepCertificateGenerated)

		res := newResult(sess, "Certificate generated. Review the document and approve it to complete formation.")
		res.Certificate = sess.Certificate
		return res, nil
	})
}

// ApproveCertificate marks the generated certificate as approved. This is
// the one place expiry is enforced mid-flow: approving after the
// certificate's expiry window fails with a distinct retryable error
// instructing the caller to regenerate.
func (s *Service) ApproveCertificate(ctx context.Context, sessionID string) (*Result, error) {
	return s.update(ctx, sessionID, func(sess *domain.FormationSession) (*Result, error) {
		if sess.Certificate == nil {
			return nil, domain.NewRequiredFieldError("certificate", domain.StepCertificateGenerated)
		}

		now := s.now()
		if !now.Before(sess.Certificate.ExpiresAt) {
			// Status deliberately stays at Review; regeneration resumes
			// from the same point.
			return nil, domain.ErrCertificateExpired
		}

		approved := now
		sess.Certificate.ApprovedAt = &approved
		sess.Status = domain.StatusCompleted
		s.advanceStep(sess, domain.StepCertificateApproved)

		res := newResult(sess, "Certificate approved. The filing is ready for payment hand-off.")
		res.Certificate = sess.Certificate
		return res, nil
	})
}
